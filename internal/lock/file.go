//go:build unix

package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"photo-index/internal/logging"
)

// FileLocker takes flock(2) locks on files in Dir. It protects runs on one
// host; the kernel drops the lock if the process dies.
type FileLocker struct {
	Dir string
}

// NewFileLocker returns a locker keeping its lock files in dir.
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{Dir: dir}
}

// LockPath returns the lock file used for key. Keys are paths, so the file
// name is a name-based UUID of the key rather than the key itself.
func (l *FileLocker) LockPath(key string) string {
	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + ".lock"
	return filepath.Join(l.Dir, name)
}

// Acquire locks key or fails with ErrLocked.
func (l *FileLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	path := l.LockPath(key)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, key)
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	// Record the holder for operators inspecting a stuck lock
	if err := f.Truncate(0); err == nil {
		_, _ = fmt.Fprintf(f, "pid=%d key=%s\n", os.Getpid(), key)
	}

	logging.Debug("Acquired file lock %s for %s", path, key)
	return &fileLease{file: f, key: key}, nil
}

type fileLease struct {
	file *os.File
	key  string
}

// Lost returns nil: the kernel holds a flock until the file is closed.
func (l *fileLease) Lost() <-chan struct{} { return nil }

func (l *fileLease) Release(ctx context.Context) error {
	if l.file == nil {
		return ErrNotHeld
	}
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	logging.Debug("Released file lock for %s", l.key)
	return errors.Join(unlockErr, closeErr)
}
