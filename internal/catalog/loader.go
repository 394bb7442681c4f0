package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pizzaria-cajazeiras/internal/cache"
	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/logger"
	"github.com/pizzaria-cajazeiras/internal/storage"
)

// Status 菜单加载状态
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Origin 菜单数据的实际来源
type Origin string

const (
	OriginNone      Origin = ""
	OriginPrimary   Origin = "primary"
	OriginCache     Origin = "cache"
	OriginLegacy    Origin = "legacy"
	OriginEmergency Origin = "emergency"
)

const defaultRetryDelay = time.Second

// State 加载器状态快照
type State struct {
	Status     Status  `json:"status"`
	Source     Origin  `json:"source"`
	Offline    bool    `json:"offline"`
	RetryCount int     `json:"retry_count"`
	Pizzas     []Pizza `json:"pizzas"`
}

// LoaderConfig 加载器配置
type LoaderConfig struct {
	RetryDelay time.Duration
	CacheTTL   time.Duration
}

// Loader 带降级策略的菜单加载器
// 顺序：主数据源 -> 缓存（忽略过期）-> 旧版缓存键 -> 应急菜单
type Loader struct {
	source     Source
	cache      *cache.Service
	local      storage.Backend
	retryDelay time.Duration
	cacheTTL   time.Duration
	sleep      func(ctx context.Context, d time.Duration) error

	// runMu 串行化 Load/Retry，mu 只保护状态读写
	runMu sync.Mutex
	mu    sync.RWMutex
	state State
}

// NewLoader 创建菜单加载器，local 为旧版缓存键所在的持久化存储
func NewLoader(source Source, cacheSvc *cache.Service, local storage.Backend, cfg LoaderConfig) *Loader {
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Duration(constants.CacheDefaultTTLMinutes) * time.Minute
	}
	return &Loader{
		source:     source,
		cache:      cacheSvc,
		local:      local,
		retryDelay: delay,
		cacheTTL:   ttl,
		sleep:      sleepContext,
		state:      State{Status: StatusIdle, Pizzas: []Pizza{}},
	}
}

// State 返回当前状态副本
func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneState(l.state)
}

// Pizzas 当前可用菜单
func (l *Loader) Pizzas() []Pizza {
	return l.State().Pizzas
}

// EnsureLoaded 首次访问时执行加载
func (l *Loader) EnsureLoaded(ctx context.Context) State {
	if l.State().Status == StatusIdle {
		return l.Load(ctx)
	}
	return l.State()
}

// Load 按降级顺序加载菜单，始终得到非空菜单
func (l *Loader) Load(ctx context.Context) State {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	l.update(func(s *State) { s.Status = StatusLoading })

	if pizzas, ok := l.loadPrimary(ctx); ok {
		return l.update(func(s *State) {
			s.Status = StatusReady
			s.Source = OriginPrimary
			s.Pizzas = pizzas
		})
	}

	if pizzas, ok := l.loadCached(ctx); ok {
		logger.Warnw("catalog_using_cache", "count", len(pizzas))
		return l.update(func(s *State) {
			s.Status = StatusReady
			s.Source = OriginCache
			s.Offline = true
			s.Pizzas = pizzas
		})
	}

	if pizzas, ok := l.loadLegacy(ctx); ok {
		logger.Warnw("catalog_using_legacy_cache", "count", len(pizzas))
		return l.update(func(s *State) {
			s.Status = StatusReady
			s.Source = OriginLegacy
			s.Offline = true
			s.Pizzas = pizzas
		})
	}

	logger.Warnw("catalog_using_emergency_data")
	return l.update(func(s *State) {
		s.Status = StatusReady
		s.Source = OriginEmergency
		s.Offline = true
		s.Pizzas = EmergencyCatalog()
	})
}

// Retry 清除缓存后延迟重试主数据源，失败时进入错误状态
func (l *Loader) Retry(ctx context.Context) State {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	return l.retryLocked(ctx)
}

func (l *Loader) retryLocked(ctx context.Context) State {
	if l.cache != nil {
		l.cache.RemoveCache(ctx, constants.CacheKeyPizzas, cache.Options{})
	}
	if l.local != nil {
		if err := l.local.Remove(ctx, constants.StorageKeyLegacyPizzas); err != nil {
			logger.Warnw("catalog_legacy_cache_remove_failed", "error", err)
		}
	}
	l.update(func(s *State) {
		s.Status = StatusLoading
		s.RetryCount++
	})

	if err := l.sleep(ctx, l.retryDelay); err != nil {
		logger.Warnw("catalog_retry_interrupted", "error", err)
		return l.update(func(s *State) { s.Status = StatusError })
	}

	if pizzas, ok := l.loadPrimary(ctx); ok {
		return l.update(func(s *State) {
			s.Status = StatusReady
			s.Source = OriginPrimary
			s.Pizzas = pizzas
		})
	}
	logger.Errorw("catalog_retry_failed", "retry_count", l.State().RetryCount)
	return l.update(func(s *State) { s.Status = StatusError })
}

// SetOnline 更新联网状态，恢复联网且处于错误状态时自动重试
func (l *Loader) SetOnline(ctx context.Context, online bool) State {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if !online {
		return l.update(func(s *State) { s.Offline = true })
	}
	state := l.update(func(s *State) { s.Offline = false })
	if state.Status == StatusError {
		return l.retryLocked(ctx)
	}
	return state
}

func (l *Loader) loadPrimary(ctx context.Context) ([]Pizza, bool) {
	if l.source == nil {
		return nil, false
	}
	pizzas, err := l.source.Load(ctx)
	if err != nil || !valid(pizzas) {
		logger.Warnw("catalog_primary_source_failed", "source", l.source.Name(), "error", err)
		return nil, false
	}
	if l.cache != nil {
		l.cache.SetCache(ctx, constants.CacheKeyPizzas, pizzas, cache.SetOptions{TTL: l.cacheTTL})
	}
	return pizzas, true
}

func (l *Loader) loadCached(ctx context.Context) ([]Pizza, bool) {
	if l.cache == nil {
		return nil, false
	}
	var pizzas []Pizza
	if !l.cache.GetCache(ctx, constants.CacheKeyPizzas, &pizzas, cache.GetOptions{IgnoreExpiry: true}) {
		return nil, false
	}
	return pizzas, valid(pizzas)
}

func (l *Loader) loadLegacy(ctx context.Context) ([]Pizza, bool) {
	if l.local == nil {
		return nil, false
	}
	raw, found, err := l.local.Get(ctx, constants.StorageKeyLegacyPizzas)
	if err != nil || !found {
		return nil, false
	}
	var pizzas []Pizza
	if err := json.Unmarshal([]byte(raw), &pizzas); err != nil {
		logger.Warnw("catalog_legacy_cache_corrupt", "error", err)
		return nil, false
	}
	return pizzas, valid(pizzas)
}

func (l *Loader) update(fn func(*State)) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.state)
	return cloneState(l.state)
}

func cloneState(s State) State {
	pizzas := make([]Pizza, len(s.Pizzas))
	copy(pizzas, s.Pizzas)
	s.Pizzas = pizzas
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
