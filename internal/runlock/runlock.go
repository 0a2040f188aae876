// Package runlock keeps two benchmark processes from measuring at the same time.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another benchmark run holds the lock")

// DefaultPath is the lock file used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "codecbench.lock")
}

// Lock is a held run lock.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock at path without waiting. An empty path uses DefaultPath.
func Acquire(path string) (*Lock, error) {
	if path == "" {
		path = DefaultPath()
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release unlocks. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
