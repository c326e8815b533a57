package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix       = "lock:"
	expiryReserveDivisor = 5
)

type RedisLockerOptions struct {
	// Expiry bounds how long a crashed holder can block the key. fn runs with a
	// deadline ahead of it.
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultRedisLockerOptions() RedisLockerOptions {
	return RedisLockerOptions{
		Expiry:     10 * time.Second,
		Tries:      20,
		RetryDelay: 250 * time.Millisecond,
	}
}

// RedisLocker shares locks between service instances through redsync.
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   RedisLockerOptions
	logger *zap.Logger
}

func NewRedisLocker(client redis.UniversalClient, opts RedisLockerOptions, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockKey := redisKeyPrefix + key
	mutex := l.rs.NewMutex(
		lockKey,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		l.logger.Warn("Failed to acquire lock", zap.String("lock_key", lockKey), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrLockUnavailable, lockKey, err)
	}
	l.logger.Debug("Lock acquired", zap.String("lock_key", lockKey))

	defer func() {
		// Unlock with a fresh context so a cancelled request still releases the key.
		unlockCtx, cancel := context.WithTimeout(context.Background(), l.opts.RetryDelay+time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); !ok || err != nil {
			l.logger.Error("Failed to release lock", zap.String("lock_key", lockKey), zap.Bool("unlock_ok", ok), zap.Error(err))
		}
	}()

	// fn must finish while the key is still ours; the reserve leaves room for
	// the work fn does after its own context ends.
	fnCtx, cancel := context.WithDeadline(ctx, mutex.Until().Add(-l.opts.Expiry/expiryReserveDivisor))
	defer cancel()
	return fn(fnCtx)
}
