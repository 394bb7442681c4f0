package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pizzaria-cajazeiras/internal/cache"
	"github.com/pizzaria-cajazeiras/internal/catalog"
	"github.com/pizzaria-cajazeiras/internal/checkout"
	"github.com/pizzaria-cajazeiras/internal/config"
	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/logger"
	"github.com/pizzaria-cajazeiras/internal/models"
	"github.com/pizzaria-cajazeiras/internal/queue"
	"github.com/pizzaria-cajazeiras/internal/repository"
	"github.com/pizzaria-cajazeiras/internal/session"
	"github.com/pizzaria-cajazeiras/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	QueueClient *queue.Client

	// Repositories
	ProductRepo repository.ProductRepository

	// Collaborators
	StorageFactory storage.Factory
	CatalogSource  catalog.Source
	AddressLookup  checkout.AddressLookup
	Notifier       checkout.Notifier

	// Services
	Sessions *session.Manager
}

// NewContainer 初始化容器，db 为空时使用全局连接
func NewContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		db = models.DB
	}

	c := &Container{
		Config: cfg,
		DB:     db,
	}

	// 1. 初始化基础设施
	c.initInfra()

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initInfra() {
	c.Redis = storage.NewRedisClient(&c.Config.Redis)
	if c.Redis != nil {
		if err := c.Redis.Ping(context.Background()).Err(); err != nil {
			logger.Warnw("provider_init_redis_failed", "error", err)
		}
	}

	qc, err := queue.NewClient(&c.Config.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		qc = nil
	}
	c.QueueClient = qc
}

func (c *Container) initRepositories() {
	if c.DB != nil {
		c.ProductRepo = repository.NewProductRepository(c.DB)
	}
}

func (c *Container) initServices() error {
	factory, err := storage.NewFactory(storage.FactoryConfig{
		Driver:      c.Config.Storage.Driver,
		DB:          c.DB,
		Redis:       c.Redis,
		RedisPrefix: c.Config.Redis.Prefix,
		QuotaBytes:  c.Config.Storage.PersistentQuotaBytes,
	})
	if err != nil {
		logger.Errorw("provider_init_storage_failed", "driver", c.Config.Storage.Driver, "error", err)
		return err
	}
	c.StorageFactory = factory

	source, err := c.buildCatalogSource()
	if err != nil {
		return err
	}
	c.CatalogSource = source
	c.AddressLookup = checkout.NewViaCEPClient(c.Config.Checkout.CEPBaseURL, c.Config.Checkout.CEPTimeout())
	c.Notifier = checkout.NewQueueNotifier(c.QueueClient)

	c.Sessions = session.NewManager(session.Dependencies{
		Persistent: c.StorageFactory,
		Source:     c.CatalogSource,
		Lookup:     c.AddressLookup,
		Notifier:   c.Notifier,
	}, session.Config{
		SessionQuotaBytes: c.Config.Storage.SessionQuotaBytes,
		IdleTimeout:       c.Config.Session.IdleTimeout(),
		SweepInterval:     c.Config.Session.SweepInterval(),
		Cache: cache.Config{
			Prefix:     c.Config.Cache.Prefix,
			DefaultTTL: c.Config.Cache.DefaultTTL(),
		},
		Loader: catalog.LoaderConfig{
			RetryDelay: c.Config.Catalog.RetryDelay(),
			CacheTTL:   c.Config.Cache.DefaultTTL(),
		},
		SubmitDelay: c.Config.Checkout.SubmitDelay(),
	})
	return nil
}

func (c *Container) buildCatalogSource() (catalog.Source, error) {
	switch strings.ToLower(strings.TrimSpace(c.Config.Catalog.Source)) {
	case "", constants.CatalogSourceStatic:
		return catalog.NewStaticSource(nil), nil
	case constants.CatalogSourceDatabase:
		if c.ProductRepo == nil {
			return nil, fmt.Errorf("catalog source %q requires a database connection", constants.CatalogSourceDatabase)
		}
		return catalog.NewDatabaseSource(c.ProductRepo), nil
	default:
		return nil, fmt.Errorf("unsupported catalog source: %s", c.Config.Catalog.Source)
	}
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Warnw("provider_close_redis_failed", "error", err)
		}
	}
}
