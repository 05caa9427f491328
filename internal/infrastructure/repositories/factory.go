package repositories

import (
	"chatpulse/internal/core/ports"
	"chatpulse/internal/infrastructure/repositories/memory"
	redisrepo "chatpulse/internal/infrastructure/repositories/redis"
	"chatpulse/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Registry.Backend == config.RegistryBackendRedis,
		logger:   logger,
	}

	// Try to connect to Redis if configured
	if factory.useRedis {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateConnectionRegistry creates a connection registry (Redis or memory with fallback)
func (f *RepositoryFactory) CreateConnectionRegistry() ports.ConnectionRegistry {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisConnectionRegistry(f.redisClient)
	}
	return memory.NewMemoryConnectionRegistry()
}

// CreateRoleStore creates a role store (Redis or memory with fallback)
func (f *RepositoryFactory) CreateRoleStore() ports.RoleStore {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisRoleStore(f.redisClient)
	}
	return memory.NewMemoryRoleStore()
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}
