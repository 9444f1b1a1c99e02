package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/logger"
)

// Save writes doc to doc.Path. With opts.Backup the current file, if any, is
// copied to a timestamped backup first and the backup's path returned. The
// target is replaced by rename, so a failed save leaves it as it was.
func (s *Store) Save(doc *Document, opts SaveOptions) (string, error) {
	data, err := doc.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to serialize settings: %w", err)
	}

	if err := s.checkWritable(doc.Path); err != nil {
		return "", err
	}

	dir := filepath.Dir(doc.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", hookerrors.PermissionDenied(dir, "create directory", err)
		}
		return "", fmt.Errorf("failed to create settings directory: %w", err)
	}

	var backupPath string
	if opts.Backup {
		backupPath, err = s.backupIfExists(doc.Path)
		if err != nil {
			return "", err
		}
	}

	if err := s.writeAtomic(doc.Path, data); err != nil {
		return backupPath, err
	}
	logger.Verbose("Wrote %s", doc.Path)

	doc.BackupPath = backupPath
	doc.state = StateSaved
	doc.existed = true
	doc.original = data
	s.InvalidateCache()

	if backupPath != "" && s.backupKeep > 0 {
		if _, err := s.CleanBackups(doc.Path, s.backupKeep); err != nil {
			logger.Warn("Failed to prune old backups of %s: %v", doc.Path, err)
		}
	}
	return backupPath, nil
}

// checkWritable fails with ErrPermissionDenied when path, or for a new file
// the closest existing parent directory, cannot be written.
func (s *Store) checkWritable(path string) error {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("settings path %s is a directory", path)
		}
		if !canWrite(path) {
			return hookerrors.PermissionDenied(path, "write", nil)
		}
		if !canWrite(filepath.Dir(path)) {
			return hookerrors.PermissionDenied(filepath.Dir(path), "write", nil)
		}
		return nil
	}

	parent := existingAncestor(filepath.Dir(path))
	if !canWrite(parent) {
		return hookerrors.PermissionDenied(parent, "create", nil)
	}
	return nil
}

// writeAtomic writes data to a temp file beside path, syncs it and renames
// it over path. The temp file is removed on any failure.
func (s *Store) writeAtomic(path string, data []byte) (err error) {
	perm := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return hookerrors.PermissionDenied(path, "write", err)
		}
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	if err = s.rename(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return hookerrors.PermissionDenied(path, "write", err)
		}
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Diff renders the change Save would make to doc.Path.
func (s *Store) Diff(doc *Document) (string, error) {
	after, err := doc.Bytes()
	if err != nil {
		return "", err
	}
	before := doc.Original()
	if bytes.Equal(before, after) {
		return "", nil
	}
	return LineDiff(string(before), string(after)), nil
}
