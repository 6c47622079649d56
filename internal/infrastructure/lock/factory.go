// Package lock provides the per-request guard taken before a transfer
// operation opens its database transaction.
package lock

import (
	"fmt"

	apptransfer "github.com/erp/stocktransfer/internal/application/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory creates request lockers based on configuration
type Factory struct {
	transferConfig        config.TransferConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory locker
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(transferCfg config.TransferConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		transferConfig:        transferCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured locker. The returned client is nil unless a
// Redis locker was created; the caller closes it on shutdown.
func (f *Factory) Create() (apptransfer.RequestLocker, *redis.Client, error) {
	if f.transferConfig.Locker != "redis" {
		f.logger.Info("Using in-memory request locker")
		return NewMemoryLocker(f.transferConfig.LockWait), nil, nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis request locker", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisLocker(client, f.transferConfig.LockTTL, f.transferConfig.LockWait), client, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("redis required for request locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory request locker. "+
		"Concurrent instances will rely on database row locks only.",
		zap.Error(err),
	)
	return NewMemoryLocker(f.transferConfig.LockWait), nil, nil
}
