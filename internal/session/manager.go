package session

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pizzaria-cajazeiras/internal/cache"
	"github.com/pizzaria-cajazeiras/internal/cart"
	"github.com/pizzaria-cajazeiras/internal/catalog"
	"github.com/pizzaria-cajazeiras/internal/checkout"
	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/logger"
	"github.com/pizzaria-cajazeiras/internal/storage"

	"github.com/google/uuid"
)

// ErrInvalidClientID 客户端标识格式错误
var ErrInvalidClientID = errors.New("invalid client id")

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const (
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// Session 单个客户端标签页的状态集合
type Session struct {
	ClientID string
	TabID    string
	Cart     *cart.Store
	Cache    *cache.Service
	Catalog  *catalog.Loader
	Checkout *checkout.Service

	unsubscribe func()

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Cart.Close()
}

// Config 会话管理配置
type Config struct {
	SessionQuotaBytes int64
	IdleTimeout       time.Duration
	SweepInterval     time.Duration
	Cache             cache.Config
	Loader            catalog.LoaderConfig
	SubmitDelay       time.Duration
}

// Dependencies 会话依赖
type Dependencies struct {
	Persistent storage.Factory
	Source     catalog.Source
	Lookup     checkout.AddressLookup
	Notifier   checkout.Notifier
}

type clientGroup struct {
	bus  *storage.Bus
	tabs int
}

// Manager 客户端会话注册表
type Manager struct {
	cfg  Config
	deps Dependencies
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	clients  map[string]*clientGroup
}

// NewManager 创建会话管理器
func NewManager(deps Dependencies, cfg Config) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*Session),
		clients:  make(map[string]*clientGroup),
	}
}

// NormalizeClientID 规范化并校验客户端标识，空值使用默认值
func NormalizeClientID(raw, fallback string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return fallback, nil
	}
	if !clientIDPattern.MatchString(id) {
		return "", ErrInvalidClientID
	}
	return id, nil
}

// Get 获取（必要时创建）客户端标签页会话
func (m *Manager) Get(ctx context.Context, clientID, tabID string) (*Session, error) {
	clientID, err := NormalizeClientID(clientID, constants.DefaultClientID)
	if err != nil {
		return nil, err
	}
	tabID, err = NormalizeClientID(tabID, constants.DefaultTabID)
	if err != nil {
		return nil, err
	}
	key := clientID + "/" + tabID
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		s.touch(now)
		return s, nil
	}

	group, ok := m.clients[clientID]
	if !ok {
		group = &clientGroup{bus: storage.NewBus()}
		m.clients[clientID] = group
	}
	s := m.build(ctx, clientID, tabID, group.bus)
	s.touch(now)
	group.tabs++
	m.sessions[key] = s
	logger.Debugw("session_created", "client_id", clientID, "tab_id", tabID)
	return s, nil
}

func (m *Manager) build(ctx context.Context, clientID, tabID string, bus *storage.Bus) *Session {
	var persistent storage.Backend
	if m.deps.Persistent != nil {
		persistent = m.deps.Persistent(clientID)
	} else {
		persistent = storage.NewMemoryBackend(0)
	}
	local := storage.WithNotify(persistent, bus, uuid.NewString())
	sessionStore := storage.NewMemoryBackend(m.cfg.SessionQuotaBytes)

	cacheSvc := cache.NewService(local, sessionStore, m.cfg.Cache)
	cartStore := cart.NewStore(ctx, local)
	loader := catalog.NewLoader(m.deps.Source, cacheSvc, local, m.cfg.Loader)
	checkoutSvc := checkout.NewService(cartStore, local, m.deps.Lookup, m.deps.Notifier, checkout.Config{
		ClientID:    clientID,
		SubmitDelay: m.cfg.SubmitDelay,
	})
	unsubscribe := cartStore.Subscribe(func(c cart.Cart) {
		logger.Debugw("session_cart_changed",
			"client_id", clientID,
			"tab_id", tabID,
			"items", c.Count(),
			"total", c.Total.String(),
		)
	})
	return &Session{
		ClientID:    clientID,
		TabID:       tabID,
		Cart:        cartStore,
		Cache:       cacheSvc,
		Catalog:     loader,
		Checkout:    checkoutSvc,
		unsubscribe: unsubscribe,
	}
}

// Len 当前会话数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep 淘汰空闲会话，会话存储随之丢弃，持久化数据保留
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for key, s := range m.sessions {
		if now.Sub(s.idleSince()) < m.cfg.IdleTimeout {
			continue
		}
		s.close()
		delete(m.sessions, key)
		if group, ok := m.clients[s.ClientID]; ok {
			group.tabs--
			if group.tabs <= 0 {
				delete(m.clients, s.ClientID)
			}
		}
		evicted++
	}
	if evicted > 0 {
		logger.Infow("session_sweep", "evicted", evicted, "remaining", len(m.sessions))
	}
	return evicted
}

// Name 服务名称
func (m *Manager) Name() string {
	return "session-sweeper"
}

// Start 周期性清理空闲会话，直到 ctx 结束
func (m *Manager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

// Stop 关闭全部会话
func (m *Manager) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		s.close()
		delete(m.sessions, key)
	}
	m.clients = make(map[string]*clientGroup)
	return nil
}
