package transition

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fleet-admin/internal/errors"
	"fleet-admin/internal/metrics"
)

// Locker serializes transitions per operator. Exactly one in-flight
// transition per operator id; requests for different operators never
// block each other. Acquire waits at most the configured bound, then
// fails with CONFLICT so callers can retry with backoff.
type Locker interface {
	Acquire(ctx context.Context, operatorID string) (release func(), err error)
}

// KeyedLocker is an in-process arena of per-operator locks
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
	wait  time.Duration
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLocker creates an arena with a bounded acquisition wait
func NewKeyedLocker(wait time.Duration) *KeyedLocker {
	return &KeyedLocker{
		locks: make(map[string]*lockEntry),
		wait:  wait,
	}
}

// Acquire takes the lock for an operator id
func (l *KeyedLocker) Acquire(ctx context.Context, operatorID string) (func(), error) {
	start := time.Now()

	l.mu.Lock()
	entry, ok := l.locks[operatorID]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[operatorID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case entry.ch <- struct{}{}:
		metrics.LockWaitDuration.Observe(time.Since(start).Seconds())
		return func() {
			<-entry.ch
			l.put(operatorID, entry)
		}, nil
	case <-timer.C:
		l.put(operatorID, entry)
		return nil, errors.Conflict(operatorID)
	case <-ctx.Done():
		l.put(operatorID, entry)
		return nil, errors.Conflict(operatorID).WithContext("cause", ctx.Err().Error())
	}
}

// put drops a reference and reclaims idle entries so the arena does not
// grow with every operator id ever seen
func (l *KeyedLocker) put(operatorID string, entry *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, operatorID)
	}
}

// RedisLocker serializes transitions across instances using Redis SET NX
// with expiry. The TTL bounds how long a crashed holder can block an
// operator; it must comfortably exceed a full transition.
type RedisLocker struct {
	client    *redis.Client
	wait      time.Duration
	ttl       time.Duration
	keyPrefix string
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(client *redis.Client, wait, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:    client,
		wait:      wait,
		ttl:       ttl,
		keyPrefix: "tierlock:",
	}
}

// releaseScript deletes the lock only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Acquire takes the distributed lock for an operator id
func (l *RedisLocker) Acquire(ctx context.Context, operatorID string) (func(), error) {
	start := time.Now()
	key := l.keyPrefix + operatorID
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Persistence("acquiring operator lock", err)
		}
		if ok {
			metrics.LockWaitDuration.Observe(time.Since(start).Seconds())
			return func() {
				_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, errors.Conflict(operatorID)
		}

		select {
		case <-time.After(25 * time.Millisecond):
		case <-ctx.Done():
			return nil, errors.Conflict(operatorID).WithContext("cause", ctx.Err().Error())
		}
	}
}
