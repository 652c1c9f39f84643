// Package lock serializes booking creation per resource across API
// instances using a Redis lease.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/coworking-booking/internal/config"
)

// ErrBusy is returned when the lock could not be acquired within the
// configured wait timeout.
var ErrBusy = errors.New("resource is busy, retry shortly")

// Unlock releases a held lock.  It is safe to call more than once.
type Unlock func(ctx context.Context) error

// Locker acquires an exclusive lock on a resource.
type Locker interface {
	Acquire(ctx context.Context, resourceID uint64) (Unlock, error)
}

// Noop is the Locker used when Redis is unavailable or locking is
// disabled.  It never blocks.
type Noop struct{}

func (Noop) Acquire(context.Context, uint64) (Unlock, error) {
	return func(context.Context) error { return nil }, nil
}

// releaseScript deletes the key only if it still holds our token, so an
// expired lease taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// Redis implements Locker with SET NX PX and a token-checked release.
type Redis struct {
	rdb *redis.Client
	cfg config.LockConfig
}

// New returns a Redis locker, or Noop when locking is disabled or no
// client is available.
func New(cfg config.LockConfig, rdb *redis.Client) Locker {
	if !cfg.Enabled || rdb == nil {
		return Noop{}
	}
	return &Redis{rdb: rdb, cfg: cfg}
}

func (l *Redis) key(resourceID uint64) string {
	return fmt.Sprintf("%s:%d", l.cfg.Prefix, resourceID)
}

// Acquire polls SET NX until it wins, the wait timeout elapses (ErrBusy)
// or ctx is done.
func (l *Redis) Acquire(ctx context.Context, resourceID uint64) (Unlock, error) {
	key := l.key(resourceID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.cfg.WaitTimeout)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			released := false
			return func(ctx context.Context) error {
				if released {
					return nil
				}
				released = true
				return releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrBusy
		}
		t := time.NewTimer(l.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
