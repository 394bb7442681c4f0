package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/logger"
	"github.com/pizzaria-cajazeiras/internal/storage"
)

// Config 缓存服务配置
type Config struct {
	Prefix     string
	DefaultTTL time.Duration
}

// Options 通用选项
type Options struct {
	UseSession bool
}

// SetOptions 写入选项
// TTL 为 0 时使用默认过期时间，NoExpiry 表示永不过期
type SetOptions struct {
	TTL        time.Duration
	NoExpiry   bool
	UseSession bool
}

// GetOptions 读取选项
type GetOptions struct {
	UseSession   bool
	IgnoreExpiry bool
}

// ClearOptions 清理选项
type ClearOptions struct {
	UseSession  bool
	OnlyExpired bool
}

// Meta 缓存元数据（毫秒时间戳）
type Meta struct {
	Timestamp int64  `json:"timestamp"`
	Expires   *int64 `json:"expires"`
	Version   string `json:"version"`
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *Meta           `json:"meta"`
}

// Info 缓存统计信息
type Info struct {
	TotalItems     int      `json:"total_items"`
	ExpiredItems   int      `json:"expired_items"`
	ValidItems     int      `json:"valid_items"`
	TotalSizeBytes int64    `json:"total_size_bytes"`
	TotalSizeKB    int64    `json:"total_size_kb"`
	Keys           []string `json:"keys"`
	StorageType    string   `json:"storage_type"`
}

// Service 带命名空间与过期控制的键值缓存
type Service struct {
	local      storage.Backend
	session    storage.Backend
	prefix     string
	defaultTTL time.Duration
	now        func() time.Time
}

// NewService 创建缓存服务
func NewService(local, session storage.Backend, cfg Config) *Service {
	prefix := cfg.Prefix
	if strings.TrimSpace(prefix) == "" {
		prefix = constants.CachePrefix
	}
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = time.Duration(constants.CacheDefaultTTLMinutes) * time.Minute
	}
	return &Service{
		local:      local,
		session:    session,
		prefix:     prefix,
		defaultTTL: ttl,
		now:        time.Now,
	}
}

// SetCache 写入缓存，失败时记录日志并返回 false
func (s *Service) SetCache(ctx context.Context, key string, data interface{}, opts SetOptions) bool {
	backend, storageType, ok := s.resolve(ctx, opts.UseSession)
	if !ok {
		return false
	}
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Errorw("cache_marshal_failed", "key", key, "error", err)
		return false
	}

	now := s.now().UnixMilli()
	meta := &Meta{Timestamp: now, Version: constants.CacheVersion}
	if !opts.NoExpiry {
		ttl := opts.TTL
		if ttl == 0 {
			ttl = s.defaultTTL
		}
		expires := now + ttl.Milliseconds()
		meta.Expires = &expires
	}
	raw, err := json.Marshal(envelope{Data: payload, Meta: meta})
	if err != nil {
		logger.Errorw("cache_marshal_failed", "key", key, "error", err)
		return false
	}
	if err := backend.Set(ctx, s.prefix+key, string(raw)); err != nil {
		logger.Errorw("cache_write_failed", "key", key, "storage_type", storageType, "error", err)
		return false
	}
	return true
}

// GetRaw 读取缓存原始数据，未命中、解析失败或已过期时返回 false
func (s *Service) GetRaw(ctx context.Context, key string, opts GetOptions) (json.RawMessage, bool) {
	backend, storageType, ok := s.resolve(ctx, opts.UseSession)
	if !ok {
		return nil, false
	}
	raw, found, err := backend.Get(ctx, s.prefix+key)
	if err != nil {
		logger.Errorw("cache_read_failed", "key", key, "storage_type", storageType, "error", err)
		return nil, false
	}
	if !found || raw == "" {
		return nil, false
	}
	entry, err := parseEnvelope(raw)
	if err != nil {
		logger.Errorw("cache_entry_corrupt", "key", key, "storage_type", storageType, "error", err)
		return nil, false
	}
	if !opts.IgnoreExpiry && s.expired(entry.Meta) {
		if err := backend.Remove(ctx, s.prefix+key); err != nil {
			logger.Warnw("cache_evict_failed", "key", key, "storage_type", storageType, "error", err)
		}
		return nil, false
	}
	if len(entry.Data) == 0 || bytes.Equal(entry.Data, []byte("null")) {
		return nil, false
	}
	return entry.Data, true
}

// GetCache 读取缓存并解析到 dest
func (s *Service) GetCache(ctx context.Context, key string, dest interface{}, opts GetOptions) bool {
	data, ok := s.GetRaw(ctx, key, opts)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logger.Errorw("cache_decode_failed", "key", key, "error", err)
		return false
	}
	return true
}

// RemoveCache 删除缓存
func (s *Service) RemoveCache(ctx context.Context, key string, opts Options) bool {
	backend, storageType, ok := s.resolve(ctx, opts.UseSession)
	if !ok {
		return false
	}
	if err := backend.Remove(ctx, s.prefix+key); err != nil {
		logger.Errorw("cache_remove_failed", "key", key, "storage_type", storageType, "error", err)
		return false
	}
	return true
}

// ClearCache 清理命名空间下的缓存，OnlyExpired 时只删除已过期或损坏的条目
func (s *Service) ClearCache(ctx context.Context, opts ClearOptions) bool {
	backend, storageType, ok := s.resolve(ctx, opts.UseSession)
	if !ok {
		return false
	}
	keys, err := backend.Keys(ctx)
	if err != nil {
		logger.Errorw("cache_clear_failed", "storage_type", storageType, "error", err)
		return false
	}
	removed := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, s.prefix) {
			continue
		}
		if opts.OnlyExpired {
			raw, found, err := backend.Get(ctx, key)
			if err != nil || !found {
				continue
			}
			entry, parseErr := parseEnvelope(raw)
			if parseErr == nil && !s.expired(entry.Meta) {
				continue
			}
		}
		if err := backend.Remove(ctx, key); err != nil {
			logger.Errorw("cache_clear_failed", "key", key, "storage_type", storageType, "error", err)
			return false
		}
		removed++
	}
	logger.Debugw("cache_cleared", "storage_type", storageType, "only_expired", opts.OnlyExpired, "removed", removed)
	return true
}

// GetCacheInfo 返回缓存统计，存储不可用时返回 nil
func (s *Service) GetCacheInfo(ctx context.Context, opts Options) *Info {
	backend, storageType, ok := s.resolve(ctx, opts.UseSession)
	if !ok {
		return nil
	}
	keys, err := backend.Keys(ctx)
	if err != nil {
		logger.Errorw("cache_info_failed", "storage_type", storageType, "error", err)
		return nil
	}
	info := &Info{Keys: make([]string, 0), StorageType: storageType}
	for _, key := range keys {
		if !strings.HasPrefix(key, s.prefix) {
			continue
		}
		raw, found, err := backend.Get(ctx, key)
		if err != nil || !found {
			continue
		}
		info.TotalItems++
		info.Keys = append(info.Keys, strings.TrimPrefix(key, s.prefix))
		info.TotalSizeBytes += storage.ApproxBytes(raw)
		if entry, parseErr := parseEnvelope(raw); parseErr == nil && s.expired(entry.Meta) {
			info.ExpiredItems++
		}
	}
	info.ValidItems = info.TotalItems - info.ExpiredItems
	info.TotalSizeKB = int64(math.Round(float64(info.TotalSizeBytes) / 1024))
	return info
}

func (s *Service) resolve(ctx context.Context, useSession bool) (storage.Backend, string, bool) {
	backend := s.local
	storageType := constants.StorageTypeLocal
	if useSession {
		backend = s.session
		storageType = constants.StorageTypeSession
	}
	if !storage.Available(ctx, backend) {
		logger.Warnw("cache_storage_unavailable", "storage_type", storageType)
		return nil, storageType, false
	}
	return backend, storageType, true
}

func (s *Service) expired(meta *Meta) bool {
	if meta == nil || meta.Expires == nil {
		return false
	}
	return s.now().UnixMilli() > *meta.Expires
}

func parseEnvelope(raw string) (*envelope, error) {
	var entry envelope
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, err
	}
	if entry.Meta == nil {
		return nil, errMetaMissing
	}
	return &entry, nil
}
