// Package lockedfile provides an inter-process mutex backed by an OS file lock.
package lockedfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("lock held by another process")

// A Mutex is a mutual-exclusion lock on a file path. The file is created
// if needed and left in place after unlocking.
type Mutex struct {
	Path string
}

// MutexAt returns a Mutex for the file at path.
func MutexAt(path string) *Mutex {
	if path == "" {
		panic("lockedfile.MutexAt: path must be non-empty")
	}
	return &Mutex{Path: path}
}

func (mu *Mutex) String() string {
	return fmt.Sprintf("lockedfile.Mutex(%s)", mu.Path)
}

// Lock blocks until the lock is acquired.
func (mu *Mutex) Lock() (unlock func(), err error) {
	return mu.lock(true)
}

// TryLock acquires the lock without waiting. It returns an error wrapping
// ErrLocked if the lock is held elsewhere.
func (mu *Mutex) TryLock() (unlock func(), err error) {
	return mu.lock(false)
}

func (mu *Mutex) lock(wait bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(mu.Path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(mu.Path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f, wait); err != nil {
		f.Close()
		if errors.Is(err, ErrLocked) {
			return nil, fmt.Errorf("%s: %w", mu.Path, ErrLocked)
		}
		return nil, fmt.Errorf("lock %s: %w", mu.Path, err)
	}
	return func() {
		unlockFile(f)
		f.Close()
	}, nil
}
