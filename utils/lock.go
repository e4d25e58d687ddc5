package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the batch lock
var ErrLocked = errors.New("another conversion batch is already running")

// BatchLock is an advisory lock held by a process for the duration of a batch
type BatchLock struct {
	lock *flock.Flock
}

// DefaultLockPath is where the batch lock lives when none is configured
func DefaultLockPath() string {
	return filepath.Join(os.TempDir(), "pageconv.lock")
}

// AcquireBatchLock takes the lock at path without blocking
func AcquireBatchLock(path string) (*BatchLock, error) {
	fileLock := flock.New(path)
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire batch lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return &BatchLock{lock: fileLock}, nil
}

// Release unlocks and removes the lock file
func (l *BatchLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release batch lock: %w", err)
	}
	_ = os.Remove(l.lock.Path())
	return nil
}
