package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/jsonutil"
	"github.com/lightfastai/cchooks/internal/logger"
)

const backupStampLayout = "20060102_150405"

var backupSuffix = regexp.MustCompile(`\.(\d{8}_\d{6})_(\d{6})\.bak$`)

// backupName returns <base>.<YYYYMMDD_HHMMSS_micro>.bak for t. The stamp is
// in UTC so names keep sorting chronologically across DST changes.
func backupName(base string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s.%s_%06d.bak", base, t.Format(backupStampLayout), t.Nanosecond()/1000)
}

// nextBackupTime returns a timestamp strictly after the previous backup made
// by this store, so names sort in creation order.
func (s *Store) nextBackupTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().Truncate(time.Microsecond)
	if !t.After(s.lastBackup) {
		t = s.lastBackup.Add(time.Microsecond)
	}
	s.lastBackup = t
	return t
}

// CreateBackup copies the current contents of path to a new backup file.
func (s *Store) CreateBackup(path string) (string, error) {
	// #nosec G304 - path is a settings file chosen by the caller
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("cannot back up %s: file does not exist", path)
	case errors.Is(err, fs.ErrPermission):
		return "", hookerrors.PermissionDenied(path, "read", err)
	case err != nil:
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	dir, base := filepath.Split(path)
	for {
		target := filepath.Join(dir, backupName(base, s.nextBackupTime()))
		if _, err := os.Lstat(target); err == nil {
			continue
		}
		if err := s.writeAtomic(target, data); err != nil {
			return "", err
		}
		logger.Verbose("Backed up %s to %s", path, target)
		return target, nil
	}
}

func (s *Store) backupIfExists(path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return s.CreateBackup(path)
}

// Backups lists the backups of path, newest first.
func (s *Store) Backups(path string) ([]Backup, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	matches, err := doublestar.Glob(os.DirFS(dir), escapeGlob(base)+".*.bak")
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var backups []Backup
	for _, name := range matches {
		m := backupSuffix.FindStringSubmatch(name)
		if m == nil || strings.TrimSuffix(name, m[0]) != base {
			continue
		}
		created, err := time.ParseInLocation(backupStampLayout, m[1], time.UTC)
		if err != nil {
			continue
		}
		micro, _ := strconv.Atoi(m[2])
		created = created.Add(time.Duration(micro) * time.Microsecond)

		full := filepath.Join(dir, name)
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		backups = append(backups, Backup{Path: full, Name: name, Created: created, Size: info.Size()})
	}

	// Names sort chronologically; newest first.
	sort.Slice(backups, func(i, j int) bool { return backups[i].Name > backups[j].Name })
	return backups, nil
}

// RestoreBackup replaces path with the named backup, or the newest one when
// name is empty. The current file is backed up first. It returns the backup
// that was restored and the backup taken of the replaced file.
func (s *Store) RestoreBackup(path, name string) (restored Backup, previous string, err error) {
	backups, err := s.Backups(path)
	if err != nil {
		return Backup{}, "", err
	}

	found := false
	for _, b := range backups {
		if name == "" || b.Name == name || b.Path == name {
			restored, found = b, true
			break
		}
	}
	if !found {
		return Backup{}, "", hookerrors.BackupNotFound(path, name)
	}

	// #nosec G304 - restored.Path was produced by Backups
	data, err := os.ReadFile(restored.Path)
	if err != nil {
		return Backup{}, "", fmt.Errorf("failed to read backup %s: %w", restored.Path, err)
	}
	if _, err := jsonutil.ParseObject(data); err != nil {
		return Backup{}, "", hookerrors.SettingsParse(restored.Path, "backup is not a JSON object", err)
	}

	if err := s.checkWritable(path); err != nil {
		return Backup{}, "", err
	}
	previous, err = s.backupIfExists(path)
	if err != nil {
		return Backup{}, "", err
	}
	if err := s.writeAtomic(path, data); err != nil {
		return Backup{}, previous, err
	}
	s.InvalidateCache()
	return restored, previous, nil
}

// CleanBackups deletes all but the keep newest backups of path and returns
// the removed paths.
func (s *Store) CleanBackups(path string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, hookerrors.Validation("keep", "keep must not be negative")
	}
	backups, err := s.Backups(path)
	if err != nil {
		return nil, err
	}
	if len(backups) <= keep {
		return nil, nil
	}

	var removed []string
	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove backup %s: %w", b.Path, err)
		}
		logger.Debug("Removed old backup %s", b.Path)
		removed = append(removed, b.Path)
	}
	return removed, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
