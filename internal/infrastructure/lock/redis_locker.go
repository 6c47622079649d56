package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	apptransfer "github.com/erp/stocktransfer/internal/application/transfer"
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "stocktransfer:lock:"

// RedisLocker implements RequestLocker with Redis leases.
// Suitable for deployments where several instances serve the same tenants.
type RedisLocker struct {
	client    *redislock.Client
	keyPrefix string
	ttl       time.Duration
	wait      time.Duration
	backoff   time.Duration
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisLocker creates a locker on an existing client.
// ttl is the lease length; wait bounds how long Acquire retries.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client:    redislock.New(client),
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
		wait:      wait,
		backoff:   50 * time.Millisecond,
	}
}

// Acquire obtains the lease for key, retrying until the wait elapses
func (l *RedisLocker) Acquire(ctx context.Context, key string) (apptransfer.ReleaseFunc, error) {
	retries := int(l.wait / l.backoff)
	lease, err := l.client.Obtain(ctx, l.keyPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrConcurrencyConflict.WithDetail("lock", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		err := lease.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// lease expired; the database transaction already finished
			return nil
		}
		return err
	}, nil
}

var _ apptransfer.RequestLocker = (*RedisLocker)(nil)
