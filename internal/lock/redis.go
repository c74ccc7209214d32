package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"photo-index/internal/logging"
)

// DefaultTTL bounds how long a crashed holder can block other runs.
const DefaultTTL = 30 * time.Second

const redisKeyPrefix = "photo-index:lock:"

// Only the holder of the token may extend or delete the key.
var (
	releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

	refreshScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisLocker coordinates runs across hosts sharing one index. The lease is
// kept alive in the background until it is released.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client with the timeouts used for lock traffic.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// NewRedisLocker returns a locker using client. A non-positive ttl means DefaultTTL.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// Acquire sets the lock key if absent or fails with ErrLocked.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	}

	lease := &redisLease{
		client: l.client,
		key:    redisKey,
		token:  token,
		ttl:    l.ttl,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		lost:   make(chan struct{}),
	}
	go lease.keepAlive()

	logging.Debug("Acquired redis lock %s (token %s)", redisKey, token)
	return lease, nil
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	lost     chan struct{}
}

func (l *redisLease) keepAlive() {
	defer close(l.done)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			n, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				logging.Warn("Failed to refresh lock %s: %v", l.key, err)
				continue
			}
			if n == 0 {
				logging.Error("Lost lock %s: key expired or was taken over", l.key)
				close(l.lost)
				return
			}
		}
	}
}

func (l *redisLease) Lost() <-chan struct{} { return l.lost }

func (l *redisLease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done

	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.key)
	}

	logging.Debug("Released redis lock %s", l.key)
	return nil
}
