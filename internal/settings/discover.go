package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/worktree"
)

type cacheEntry struct {
	at       time.Time
	descs    []Descriptor
	modTimes []time.Time
}

// Discover returns the project and user candidates for startPath, in
// precedence order. An empty startPath means the working directory.
func (s *Store) Discover(startPath string) ([]Descriptor, error) {
	if startPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		startPath = wd
	}
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", startPath, err)
	}

	if descs, ok := s.cached(abs); ok {
		logger.Debug("Using cached discovery for %s", abs)
		return descs, nil
	}

	project, found := s.findProject(abs)
	descs := []Descriptor{
		describe(project, LevelProject, found),
		describe(s.UserPath(), LevelUser, true),
	}

	s.remember(abs, descs)
	return copyDescriptors(descs), nil
}

// findProject walks up from dir to the first directory holding a .claude
// directory. The home directory is skipped; its .claude folder is the user
// level. When none is found the candidate is placed at the enclosing git
// repository root, or at dir outside a repository.
func (s *Store) findProject(dir string) (string, bool) {
	home := filepath.Clean(s.homeDir)
	for current := dir; ; {
		if current != home {
			info, err := os.Stat(filepath.Join(current, DirName))
			if err == nil && info.IsDir() {
				return filepath.Join(current, DirName, FileName), true
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return filepath.Join(s.projectFallback(dir), DirName, FileName), false
}

func (s *Store) projectFallback(dir string) string {
	root, err := worktree.FindGitRoot(dir)
	if err != nil {
		return dir
	}
	// a dotfiles repository at or above the home directory is not a project
	home := filepath.Clean(s.homeDir)
	if rel, err := filepath.Rel(root, home); err == nil && !strings.HasPrefix(rel, "..") {
		return dir
	}
	logger.Debug("No .claude directory found; using repository root %s", root)
	return root
}

func describe(path string, level Level, found bool) Descriptor {
	d := Descriptor{Path: path, Level: level, Found: found}

	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		d.Exists = true
		d.ModTime = info.ModTime()
		d.Readable = canRead(path)
		d.Writable = canWrite(path)
		return d
	}

	// A file that does not exist yet is writable when the closest existing
	// ancestor directory is.
	d.Writable = canWrite(existingAncestor(filepath.Dir(path)))
	return d
}

func existingAncestor(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

func (s *Store) cached(key string) ([]Descriptor, bool) {
	if s.cacheTTL <= 0 {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[key]
	if !ok || s.now().Sub(entry.at) >= s.cacheTTL {
		return nil, false
	}
	for i, d := range entry.descs {
		if !modTime(d.Path).Equal(entry.modTimes[i]) {
			delete(s.cache, key)
			return nil, false
		}
	}
	return copyDescriptors(entry.descs), true
}

func (s *Store) remember(key string, descs []Descriptor) {
	if s.cacheTTL <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	times := make([]time.Time, len(descs))
	for i, d := range descs {
		times[i] = d.ModTime
	}
	s.cache[key] = cacheEntry{at: s.now(), descs: copyDescriptors(descs), modTimes: times}
}

// InvalidateCache drops every cached discovery result.
func (s *Store) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cacheEntry)
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func copyDescriptors(descs []Descriptor) []Descriptor {
	out := make([]Descriptor, len(descs))
	copy(out, descs)
	return out
}
