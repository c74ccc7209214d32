package lock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupRedisLocker(t *testing.T, ttl time.Duration) *RedisLocker {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis lock tests")
	}

	client := NewRedisClient(addr, os.Getenv("REDIS_PASSWORD"))
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis at %s unreachable: %v", addr, err)
	}

	return NewRedisLocker(client, ttl)
}

func TestRedisLocker(t *testing.T) {
	locker := setupRedisLocker(t, 3*time.Second)
	ctx := context.Background()
	key := "/test/" + uuid.NewString()

	lease, err := locker.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if _, err := locker.Acquire(ctx, key); !errors.Is(err, ErrLocked) {
		t.Errorf("second Acquire error = %v, want ErrLocked", err)
	}

	// The keep-alive must outlive the TTL
	time.Sleep(4 * time.Second)
	if _, err := locker.Acquire(ctx, key); !errors.Is(err, ErrLocked) {
		t.Errorf("Acquire after TTL error = %v, want ErrLocked (lease should be refreshed)", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	again, err := locker.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	_ = again.Release(ctx)
}

func TestRedisLocker_ReleaseAfterTakeover(t *testing.T) {
	locker := setupRedisLocker(t, time.Second)
	ctx := context.Background()
	key := "/test/" + uuid.NewString()

	lease, err := locker.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Simulate another holder overwriting the key
	if err := locker.client.Set(ctx, redisKeyPrefix+key, "someone-else", time.Minute).Err(); err != nil {
		t.Fatal(err)
	}
	defer locker.client.Del(ctx, redisKeyPrefix+key)

	if err := lease.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Errorf("Release error = %v, want ErrNotHeld", err)
	}
}

func TestRedisLocker_LostSignalsTakeover(t *testing.T) {
	locker := setupRedisLocker(t, 600*time.Millisecond)
	ctx := context.Background()
	key := "/test/" + uuid.NewString()

	lease, err := locker.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	select {
	case <-lease.Lost():
		t.Fatal("Lost() closed while the lease is held")
	default:
	}

	if err := locker.client.Set(ctx, redisKeyPrefix+key, "someone-else", time.Minute).Err(); err != nil {
		t.Fatal(err)
	}
	defer locker.client.Del(ctx, redisKeyPrefix+key)

	select {
	case <-lease.Lost():
	case <-time.After(3 * time.Second):
		t.Fatal("Lost() not closed after the key was taken over")
	}

	if err := lease.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Errorf("Release error = %v, want ErrNotHeld", err)
	}
}

func TestNewRedisLocker_DefaultTTL(t *testing.T) {
	l := NewRedisLocker(nil, 0)
	if l.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", l.ttl, DefaultTTL)
	}
}
