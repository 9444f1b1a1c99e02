package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/logger"
)

const (
	// DirName is the per-project and per-user settings directory.
	DirName = ".claude"
	// FileName is the settings file inside DirName.
	FileName = "settings.json"

	// DefaultCacheTTL bounds how long a discovery result is reused.
	DefaultCacheTTL = 500 * time.Millisecond
	// DefaultLockTimeout bounds how long WithLock waits for another process.
	DefaultLockTimeout = 5 * time.Second
	// DefaultBackupKeep is how many automatic backups are retained per file.
	DefaultBackupKeep = 10
)

// Store locates and persists settings documents.
type Store struct {
	homeDir     string
	now         func() time.Time
	cacheTTL    time.Duration
	lockTimeout time.Duration
	backupKeep  int

	mu         sync.Mutex
	cache      map[string]cacheEntry
	lastBackup time.Time

	// rename is swapped out in tests to simulate a failing replace.
	rename func(oldpath, newpath string) error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHomeDir overrides the directory holding the user-level .claude folder.
func WithHomeDir(dir string) StoreOption {
	return func(s *Store) { s.homeDir = dir }
}

// WithClock sets the time source used for backup names.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithCacheTTL sets the discovery cache lifetime. Zero disables caching.
func WithCacheTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.cacheTTL = ttl }
}

// WithLockTimeout sets how long WithLock waits for the advisory lock.
func WithLockTimeout(d time.Duration) StoreOption {
	return func(s *Store) { s.lockTimeout = d }
}

// WithBackupRetention sets how many backups Save keeps. Zero keeps all.
func WithBackupRetention(keep int) StoreOption {
	return func(s *Store) { s.backupKeep = keep }
}

// NewStore returns a Store rooted at the current user's home directory.
func NewStore(opts ...StoreOption) (*Store, error) {
	s := &Store{
		now:         time.Now,
		cacheTTL:    DefaultCacheTTL,
		lockTimeout: DefaultLockTimeout,
		backupKeep:  DefaultBackupKeep,
		cache:       make(map[string]cacheEntry),
		rename:      os.Rename,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.homeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		s.homeDir = home
	}
	return s, nil
}

// HomeDir returns the directory the user-level settings live under.
func (s *Store) HomeDir() string { return s.homeDir }

// UserPath returns <home>/.claude/settings.json.
func (s *Store) UserPath() string {
	return filepath.Join(s.homeDir, DirName, FileName)
}

// Load reads the file a descriptor points at.
func (s *Store) Load(d Descriptor) (*Document, error) {
	return s.LoadPath(d.Path, d.Level)
}

// LoadPath reads path. A missing file yields an empty document in state
// NotFound; the file is never modified.
func (s *Store) LoadPath(path string, level Level) (*Document, error) {
	logger.Debug("Loading settings from %s", path)

	// #nosec G304 - path comes from discovery or an explicit --file flag
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("Settings file %s does not exist", path)
		return newDocument(path, level), nil
	case errors.Is(err, fs.ErrPermission):
		return nil, hookerrors.PermissionDenied(path, "read", err)
	case err != nil:
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	return ParseDocument(path, level, data)
}

// LoadLevel discovers from startPath and loads the file for level.
func (s *Store) LoadLevel(startPath string, level Level) (*Document, error) {
	descs, err := s.Discover(startPath)
	if err != nil {
		return nil, err
	}
	for _, d := range descs {
		if d.Level == level {
			return s.Load(d)
		}
	}
	return nil, fmt.Errorf("no %s settings candidate", level)
}
