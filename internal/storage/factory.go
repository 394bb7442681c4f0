package storage

import (
	"fmt"
	"strings"

	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Factory 按客户端作用域创建持久化存储
type Factory func(scope string) Backend

// FactoryConfig 持久化存储工厂配置
type FactoryConfig struct {
	Driver      string
	DB          *gorm.DB
	Redis       *redis.Client
	RedisPrefix string
	QuotaBytes  int64
}

// NewFactory 根据驱动选择持久化存储实现
func NewFactory(cfg FactoryConfig) (Factory, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", constants.StorageDriverDatabase:
		if cfg.DB == nil {
			return nil, fmt.Errorf("storage driver %q requires a database connection", constants.StorageDriverDatabase)
		}
		repo := repository.NewStorageRepository(cfg.DB)
		return func(scope string) Backend {
			return NewGormBackend(repo, scope)
		}, nil
	case constants.StorageDriverRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("storage driver %q requires redis to be enabled", constants.StorageDriverRedis)
		}
		return func(scope string) Backend {
			return NewRedisBackend(cfg.Redis, cfg.RedisPrefix, scope)
		}, nil
	case constants.StorageDriverMemory:
		store := NewMemoryStore(cfg.QuotaBytes)
		return store.Scope, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
