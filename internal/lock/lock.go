// Package lock keeps concurrent builds of one registry apart.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file kept next to the definition database.
const FileName = "build.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another modforge build is using this registry")

// RegistryLock is an exclusive, non-blocking file lock.
type RegistryLock struct {
	path string
	lock *flock.Flock
}

// ForDatabase returns the lock guarding the database at dbPath.
func ForDatabase(dbPath string) *RegistryLock {
	return New(filepath.Join(filepath.Dir(dbPath), FileName))
}

// New creates a lock on path. Nothing is acquired yet.
func New(path string) *RegistryLock {
	return &RegistryLock{path: path}
}

// Path returns the lock file path.
func (l *RegistryLock) Path() string {
	return l.path
}

// Acquire takes the lock or fails with ErrLocked without waiting.
func (l *RegistryLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(l.path)
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w (%s)", ErrLocked, l.path)
	}
	l.lock = fl
	return nil
}

// Release releases the lock. Releasing an unheld lock is a no-op.
func (l *RegistryLock) Release() error {
	if l.lock == nil {
		return nil
	}
	err := l.lock.Unlock()
	l.lock = nil
	return err
}
