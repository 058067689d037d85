package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lockPollInterval = 100 * time.Millisecond

// errLockBusy is returned by tryLock when another process holds the lock.
var errLockBusy = errors.New("lock held by another process")

// FileLocker is an advisory lock on a file, shared with other iwes-fetch
// processes using the same home.
type FileLocker struct {
	path string
}

// NewFileLocker locks path. The parent directory is created on first use.
func NewFileLocker(path string) *FileLocker {
	return &FileLocker{path: path}
}

// Path returns the lock file path.
func (l *FileLocker) Path() string {
	return l.path
}

// Lock blocks until the lock is held or ctx is done.
func (l *FileLocker) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		err := tryLock(f)
		if err == nil {
			return func() error {
				uerr := unlock(f)
				cerr := f.Close()
				return errors.Join(uerr, cerr)
			}, nil
		}
		if !errors.Is(err, errLockBusy) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to lock %s: %w", l.path, err)
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
