// Package worktree locates the git repository a directory belongs to, so a
// new project .claude directory lands at the repository root and linked
// worktrees can be traced back to their main checkout.
package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Detector handles git worktree detection logic
type Detector struct {
	// stat allows for dependency injection in tests
	stat func(path string) (os.FileInfo, error)
	// readFile allows for dependency injection in tests
	readFile func(path string) ([]byte, error)
	// evalSymlinks allows for dependency injection in tests
	evalSymlinks func(path string) (string, error)
}

// NewDetector creates a new Detector with default implementations
func NewDetector() *Detector {
	return &Detector{
		stat:         os.Stat,
		readFile:     os.ReadFile,
		evalSymlinks: filepath.EvalSymlinks,
	}
}

// gitdir returns the target of a .git file, or "" when dir/.git is a
// directory or missing
func (d *Detector) gitdir(dir string) (string, error) {
	gitPath := filepath.Join(dir, ".git")
	info, err := d.stat(gitPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat .git: %w", err)
	}
	if info.IsDir() {
		return "", nil
	}

	content, err := d.readFile(gitPath)
	if err != nil {
		return "", fmt.Errorf("failed to read .git file: %w", err)
	}
	line := strings.TrimSpace(string(content))
	if !strings.HasPrefix(line, "gitdir: ") {
		return "", nil
	}
	gitdir := strings.TrimPrefix(line, "gitdir: ")
	if !filepath.IsAbs(gitdir) {
		gitdir = filepath.Join(dir, gitdir)
	}
	return filepath.Clean(gitdir), nil
}

// IsWorktree checks if dir is the root of a linked git worktree. A worktree
// has a .git file pointing into <main>/.git/worktrees/; submodules also use a
// .git file but point into .git/modules/.
func (d *Detector) IsWorktree(dir string) (bool, error) {
	gitdir, err := d.gitdir(dir)
	if err != nil || gitdir == "" {
		return false, err
	}
	return filepath.Base(filepath.Dir(gitdir)) == "worktrees", nil
}

// ParentRepo returns the main checkout a worktree belongs to
func (d *Detector) ParentRepo(worktreeDir string) (string, error) {
	gitdir, err := d.gitdir(worktreeDir)
	if err != nil {
		return "", err
	}
	if gitdir == "" || filepath.Base(filepath.Dir(gitdir)) != "worktrees" {
		return "", fmt.Errorf("%s is not a git worktree", worktreeDir)
	}

	// <main>/.git/worktrees/<name>
	parentRepo := filepath.Dir(filepath.Dir(filepath.Dir(gitdir)))
	if _, err := d.stat(parentRepo); err != nil {
		return "", fmt.Errorf("parent repo not found at %s: %w", parentRepo, err)
	}

	resolved, err := d.evalSymlinks(parentRepo)
	if err != nil {
		return parentRepo, nil
	}
	return resolved, nil
}

// FindGitRoot walks up from startDir to the nearest directory holding .git,
// which is either a normal repository or a worktree
func (d *Detector) FindGitRoot(startDir string) (string, error) {
	for currentDir := startDir; ; {
		if _, err := d.stat(filepath.Join(currentDir, ".git")); err == nil {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}
	return "", fmt.Errorf("no .git found above %s", startDir)
}

// FindGitRoot is a convenience function using the default detector
func FindGitRoot(startDir string) (string, error) {
	return NewDetector().FindGitRoot(startDir)
}
