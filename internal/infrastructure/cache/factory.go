package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/config"
)

// Guard is an AdjustmentGuard that owns resources
type Guard interface {
	inventory.AdjustmentGuard
	Close() error
}

// GuardFactory creates adjustment guards based on configuration
type GuardFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// GuardFactoryOption is a functional option for configuring the factory
type GuardFactoryOption func(*GuardFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) GuardFactoryOption {
	return func(f *GuardFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory guard when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) GuardFactoryOption {
	return func(f *GuardFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewGuardFactory creates a new factory
func NewGuardFactory(cfg config.RedisConfig, opts ...GuardFactoryOption) *GuardFactory {
	f := &GuardFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisGuard creates a Redis-based adjustment guard
func (f *GuardFactory) CreateRedisGuard() (Guard, error) {
	guard, err := NewRedisAdjustmentGuard(RedisConfig{
		Host:      f.redisConfig.Host,
		Port:      f.redisConfig.Port,
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.redisConfig.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis adjustment guard: %w", err)
	}
	return guard, nil
}

// CreateInMemoryGuard creates an in-memory adjustment guard.
// WARNING: in-memory guards do not share state across instances and are lost on
// restart, after which already-applied adjustments may be submitted again.
func (f *GuardFactory) CreateInMemoryGuard() Guard {
	return NewInMemoryAdjustmentGuard()
}

// CreateGuard returns a Redis guard when Redis is enabled and reachable, otherwise
// an in-memory guard if fallback is allowed.
func (f *GuardFactory) CreateGuard() (Guard, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory adjustment guard")
		return f.CreateInMemoryGuard(), nil
	}

	guard, err := f.CreateRedisGuard()
	if err == nil {
		f.logger.Info("using Redis adjustment guard")
		return guard, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for adjustment guard but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory adjustment guard. "+
		"Applied adjustments will not survive a restart.",
		zap.Error(err),
	)
	return f.CreateInMemoryGuard(), nil
}
