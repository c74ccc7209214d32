//go:build unix

package lock

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestFileLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewFileLocker(t.TempDir())

	lease, err := locker.Acquire(ctx, "/srv/albums")
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	// A second holder (even in this process) must be refused
	if _, err := NewFileLocker(locker.Dir).Acquire(ctx, "/srv/albums"); !errors.Is(err, ErrLocked) {
		t.Errorf("second Acquire error = %v, want ErrLocked", err)
	}

	// Other roots are independent
	other, err := locker.Acquire(ctx, "/srv/other")
	if err != nil {
		t.Fatalf("Acquire on another key failed: %v", err)
	}
	if err := other.Release(ctx); err != nil {
		t.Errorf("Release(other) failed: %v", err)
	}

	if lease.Lost() != nil {
		t.Error("file leases are never lost while held")
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := lease.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Errorf("double Release error = %v, want ErrNotHeld", err)
	}

	again, err := locker.Acquire(ctx, "/srv/albums")
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	_ = again.Release(ctx)
}

func TestFileLocker_LockFile(t *testing.T) {
	locker := NewFileLocker(t.TempDir())

	a := locker.LockPath("/srv/albums")
	if a != locker.LockPath("/srv/albums") {
		t.Error("LockPath must be deterministic")
	}
	if a == locker.LockPath("/srv/albums2") {
		t.Error("different keys must map to different files")
	}
	if !strings.HasSuffix(a, ".lock") {
		t.Errorf("LockPath = %q, want .lock suffix", a)
	}

	lease, err := locker.Acquire(context.Background(), "/srv/albums")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer func() { _ = lease.Release(context.Background()) }()

	data, err := os.ReadFile(a)
	if err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if !strings.Contains(string(data), "key=/srv/albums") {
		t.Errorf("lock file contents = %q", data)
	}
}

func TestFileLocker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFileLocker(t.TempDir()).Acquire(ctx, "/x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire with cancelled ctx error = %v, want context.Canceled", err)
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var l Locker = Noop{}

	a, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if a.Release(ctx) != nil || b.Release(ctx) != nil {
		t.Error("noop release should never fail")
	}
}
