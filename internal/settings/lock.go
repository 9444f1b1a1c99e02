package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/logger"
)

// LockPath returns the advisory lock file guarding path.
func LockPath(path string) string {
	return path + ".lock"
}

// WithLock holds the advisory lock for path while fn runs, so that two
// cchooks processes cannot interleave a load, edit and save of the same file.
func (s *Store) WithLock(ctx context.Context, path string, fn func() error) error {
	lockPath := LockPath(path)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	fileLock := flock.New(lockPath)

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return hookerrors.LockTimeout(lockPath, s.lockTimeout)
		}
		return fmt.Errorf("failed to acquire settings lock: %w", err)
	}
	if !locked {
		return hookerrors.LockTimeout(lockPath, s.lockTimeout)
	}
	logger.Debug("Acquired lock %s", lockPath)

	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logger.Warn("Failed to release lock %s: %v", lockPath, err)
		}
	}()
	return fn()
}

// LockHeld reports whether another process currently holds the lock for path.
func LockHeld(path string) (bool, error) {
	lockPath := LockPath(path)
	if _, err := os.Stat(lockPath); err != nil {
		return false, nil
	}
	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLock()
	if err != nil {
		return false, err
	}
	if locked {
		_ = fileLock.Unlock()
		return false, nil
	}
	return true, nil
}
