package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Locker runs functions under a Redis lock so that only one replica does
// the work at a time.
type Locker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

// NewLocker creates a Locker. Locks expire after expiry if the holder dies.
func NewLocker(client redis.UniversalClient, expiry time.Duration) *Locker {
	if expiry <= 0 {
		expiry = 30 * time.Second
	}
	return &Locker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
	}
}

// TryRun runs fn if the lock for key is free and reports whether it ran.
// The lock is held for the duration of fn and released afterwards.
func (l *Locker) TryRun(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	mutex := l.rs.NewMutex(key, redsync.WithExpiry(l.expiry), redsync.WithTries(1))

	if err := mutex.LockContext(ctx); err != nil {
		if isContention(err) {
			zerolog.Ctx(ctx).Debug().Str("lock_key", key).Msg("lock held elsewhere")
			return false, nil
		}
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	runErr := fn(ctx)

	if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil || !ok {
		zerolog.Ctx(ctx).Warn().Err(err).Str("lock_key", key).Msg("lock expired before release")
	}
	return true, runErr
}

func isContention(err error) bool {
	if errors.Is(err, redsync.ErrFailed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "lock already taken") || strings.Contains(msg, "failed to acquire lock")
}
