package container

import (
	"context"
	"sync"
	"time"

	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/infrastructure/config"
	"actrec-directory/internal/infrastructure/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options are the process-wide collaborators the container wires together.
// Redis and Publisher are optional.
type Options struct {
	Store     store.Store
	DB        *gorm.DB
	Config    *config.Config
	Redis     *redis.Client
	Publisher services.InterfaceEventPublisher
	Logger    *zap.Logger
}

// ServiceContainer builds every service once and hands them out by name
type ServiceContainer struct {
	store  store.Store
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client
	logger *zap.Logger

	credentialService services.InterfaceCredentialService
	jwtService        services.InterfaceJWTService
	cache             services.InterfaceDirectoryCache
	publisher         services.InterfaceEventPublisher
	contactService    *services.ContactService
	bulkService       *services.BulkService

	mu sync.RWMutex
}

// NewServiceContainer creates the container. It panics when the store or
// config is missing.
func NewServiceContainer(opts Options) *ServiceContainer {
	if opts.Store == nil {
		panic("container: store is nil")
	}
	if opts.Config == nil {
		panic("container: config is nil")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &ServiceContainer{
		store:     opts.Store,
		db:        opts.DB,
		config:    opts.Config,
		redis:     opts.Redis,
		logger:    opts.Logger,
		publisher: opts.Publisher,
	}
	c.initializeServices()
	return c
}

func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = services.NoopDirectoryCache{}
	if c.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.redis.Ping(ctx).Err(); err != nil {
			c.logger.Warn("Redis ping failed, directory cache disabled", zap.Error(err))
		} else {
			c.cache = services.NewRedisDirectoryCache(c.redis, c.config.CacheTTL)
		}
	}
	if c.publisher == nil {
		c.publisher = services.NoopEventPublisher{}
	}

	c.credentialService = services.NewCredentialService(c.config.PasswordHashCost)
	c.jwtService = services.NewJWTService(c.config, c.store, c.credentialService)
	c.contactService = services.NewContactService(c.store, c.config, c.credentialService, c.cache, c.publisher, c.logger)
	c.bulkService = services.NewBulkService(c.contactService, c.config)
}

// GetService returns the named service, or nil for an unknown name
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "store":
		return c.store
	case "redis":
		return c.redis
	case "logger":
		return c.logger
	case "credential":
		return c.credentialService
	case "jwt":
		return c.jwtService
	case "cache":
		return c.cache
	case "events":
		return c.publisher
	case "contact":
		return services.InterfaceContactService(c.contactService)
	case "bulk":
		return services.InterfaceBulkService(c.bulkService)
	default:
		return nil
	}
}

// GetDB returns the database handle
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Close releases the publisher and the Redis client
func (c *ServiceContainer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publisher.Close()
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Warn("Redis close failed", zap.Error(err))
		}
	}
}
