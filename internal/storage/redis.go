package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pizzaria-cajazeiras/internal/config"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "pizzaria"

// NewRedisClient 根据配置创建 Redis 客户端，未启用时返回 nil
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	addr := strings.TrimSpace(cfg.Host)
	if addr == "" {
		addr = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", addr, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisBackend 基于 Redis 的持久化存储
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend 创建 Redis 存储，键格式为 prefix:scope:key
func NewRedisBackend(client *redis.Client, prefix, scope string) *RedisBackend {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisBackend{
		client: client,
		prefix: buildRedisKey(prefix, scope) + ":",
	}
}

// Get 读取键值
func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if b.client == nil {
		return "", false, ErrUnavailable
	}
	val, err := b.client.Get(ctx, b.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapRedisError(err)
	}
	return val, true, nil
}

// Set 写入键值（不设置过期，过期由缓存信封自行管理）
func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	if b.client == nil {
		return ErrUnavailable
	}
	if err := b.client.Set(ctx, b.prefix+key, value, 0).Err(); err != nil {
		return wrapRedisError(err)
	}
	return nil
}

// Remove 删除键
func (b *RedisBackend) Remove(ctx context.Context, key string) error {
	if b.client == nil {
		return ErrUnavailable
	}
	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return wrapRedisError(err)
	}
	return nil
}

// Keys 通过 SCAN 列出作用域内全部键
func (b *RedisBackend) Keys(ctx context.Context) ([]string, error) {
	if b.client == nil {
		return nil, ErrUnavailable
	}
	var keys []string
	iter := b.client.Scan(ctx, 0, escapeRedisPattern(b.prefix)+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), b.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, wrapRedisError(err)
	}
	sort.Strings(keys)
	return keys, nil
}

func buildRedisKey(prefix, scope string) string {
	trimmed := strings.TrimSpace(scope)
	if trimmed == "" {
		return prefix
	}
	return fmt.Sprintf("%s:%s", prefix, trimmed)
}

func wrapRedisError(err error) error {
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "OOM") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func escapeRedisPattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(s)
}
