package lock

import (
	"context"
	"errors"
)

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("lock is held by another run")

// ErrNotHeld is returned by Release when the lease expired or was taken over.
var ErrNotHeld = errors.New("lock is no longer held")

// Lease is a held lock.
type Lease interface {
	// Lost is closed when the lock is taken away before Release. A nil
	// channel means the lease cannot be lost.
	Lost() <-chan struct{}
	Release(ctx context.Context) error
}

// Locker hands out exclusive leases per key. Acquire never waits: a busy key
// fails with ErrLocked.
type Locker interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

// Noop grants every request. Use it when the caller guarantees exclusivity.
type Noop struct{}

// Acquire always succeeds.
func (Noop) Acquire(ctx context.Context, key string) (Lease, error) {
	return noopLease{}, nil
}

type noopLease struct{}

func (noopLease) Lost() <-chan struct{} { return nil }

func (noopLease) Release(ctx context.Context) error { return nil }
