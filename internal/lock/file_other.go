//go:build !unix

package lock

import (
	"context"
	"errors"
)

// FileLocker is unavailable without flock(2); use the redis backend or none.
type FileLocker struct {
	Dir string
}

// NewFileLocker returns a locker that always fails on this platform.
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{Dir: dir}
}

// Acquire always fails on this platform.
func (l *FileLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	return nil, errors.New("file locks are not supported on this platform")
}
