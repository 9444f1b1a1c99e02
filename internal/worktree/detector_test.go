package worktree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// mockFileInfo implements os.FileInfo for testing
type mockFileInfo struct {
	name  string
	isDir bool
}

func (m mockFileInfo) Name() string       { return m.name }
func (m mockFileInfo) Size() int64        { return 0 }
func (m mockFileInfo) Mode() os.FileMode  { return 0o644 }
func (m mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m mockFileInfo) IsDir() bool        { return m.isDir }
func (m mockFileInfo) Sys() interface{}   { return nil }

// fakeFS serves stat and readFile from a map; a nil entry is a directory
type fakeFS map[string][]byte

func (f fakeFS) stat(path string) (os.FileInfo, error) {
	content, ok := f[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return mockFileInfo{name: filepath.Base(path), isDir: content == nil}, nil
}

func (f fakeFS) readFile(path string) ([]byte, error) {
	content, ok := f[path]
	if !ok || content == nil {
		return nil, os.ErrNotExist
	}
	return content, nil
}

func (f fakeFS) detector() *Detector {
	return &Detector{
		stat:         f.stat,
		readFile:     f.readFile,
		evalSymlinks: func(path string) (string, error) { return path, nil },
	}
}

func TestIsWorktree(t *testing.T) {
	fs := fakeFS{
		"/repo/.git":       nil,
		"/wt/.git":         []byte("gitdir: /repo/.git/worktrees/feature\n"),
		"/relative/.git":   []byte("gitdir: ../repo/.git/worktrees/rel"),
		"/submodule/.git":  []byte("gitdir: ../repo/.git/modules/sub"),
		"/garbage/.git":    []byte("not a pointer"),
		"/repo":            nil,
		"/relative":        nil,
		"/repo/.git/x.txt": []byte("x"),
	}

	tests := []struct {
		dir      string
		expected bool
	}{
		{"/repo", false},
		{"/wt", true},
		{"/relative", true},
		{"/submodule", false},
		{"/garbage", false},
		{"/nothing", false},
	}

	d := fs.detector()
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			got, err := d.IsWorktree(tt.dir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("IsWorktree(%q) = %v, want %v", tt.dir, got, tt.expected)
			}
		})
	}
}

func TestIsWorktree_StatError(t *testing.T) {
	d := &Detector{
		stat: func(path string) (os.FileInfo, error) {
			return nil, errors.New("permission denied")
		},
	}
	if _, err := d.IsWorktree("/x"); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestParentRepo(t *testing.T) {
	fs := fakeFS{
		"/home/user/project":         nil,
		"/home/user/project/.git":    nil,
		"/home/user/project-wt/.git": []byte("gitdir: /home/user/project/.git/worktrees/project-wt"),
		"/home/user/orphan/.git":     []byte("gitdir: /gone/.git/worktrees/orphan"),
	}
	d := fs.detector()

	got, err := d.ParentRepo("/home/user/project-wt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/home/user/project" {
		t.Errorf("ParentRepo() = %q, want /home/user/project", got)
	}

	if _, err := d.ParentRepo("/home/user/project"); err == nil {
		t.Error("expected error for a normal repository")
	}
	if _, err := d.ParentRepo("/home/user/orphan"); err == nil {
		t.Error("expected error when the parent repo is missing")
	}
}

func TestFindGitRoot(t *testing.T) {
	fs := fakeFS{
		"/home/user/project/.git":    nil,
		"/home/user/project-wt/.git": []byte("gitdir: /home/user/project/.git/worktrees/project-wt"),
	}
	d := fs.detector()

	tests := []struct {
		name        string
		startDir    string
		expected    string
		expectError bool
	}{
		{"git root in current dir", "/home/user/project", "/home/user/project", false},
		{"git root in parent dir", "/home/user/project/src/lib", "/home/user/project", false},
		{"worktree root", "/home/user/project-wt/cmd", "/home/user/project-wt", false},
		{"no git root", "/home/user/other", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.FindGitRoot(tt.startDir)
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("FindGitRoot() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFindGitRoot_RealFilesystem(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindGitRoot(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != root {
		t.Errorf("FindGitRoot() = %q, want %q", got, root)
	}
}
