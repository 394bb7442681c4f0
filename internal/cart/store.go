package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/logger"
	"github.com/pizzaria-cajazeiras/internal/storage"
)

// Listener 状态变更回调
type Listener func(Cart)

// Store 购物车状态容器
// 每次变更后重新计算总价并完整写回存储；写入失败只记录日志，内存状态为准
type Store struct {
	backend storage.Backend

	mu        sync.Mutex
	state     Cart
	version   uint64
	listeners map[int]Listener
	nextID    int

	persistMu        sync.Mutex
	persistedVersion uint64

	stopWatch func()
}

// NewStore 创建购物车并从存储恢复状态
func NewStore(ctx context.Context, backend storage.Backend) *Store {
	s := &Store{
		backend:   backend,
		state:     Cart{Items: []LineItem{}, Total: computeTotal(nil)},
		listeners: make(map[int]Listener),
	}
	if loaded, ok := s.load(ctx); ok {
		s.state = loaded
	}
	if watchable, ok := backend.(storage.Watchable); ok {
		s.stopWatch = watchable.Watch(s.onStorageChange)
	}
	return s
}

// Close 停止监听外部变更
func (s *Store) Close() {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
}

// Snapshot 返回当前状态副本
func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Count 商品总件数
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Count()
}

// Subscribe 订阅状态变更，返回取消订阅函数
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// AddItem 加入商品，相同标识时数量加一并保留原有价格
func (s *Store) AddItem(ctx context.Context, item LineItem) Cart {
	if item.ID.IsZero() {
		logger.Warnw("cart_add_item_missing_id", "name", item.Name)
		return s.Snapshot()
	}
	return s.mutate(ctx, func(c *Cart) {
		key := item.Key()
		for i := range c.Items {
			if c.Items[i].Key() == key {
				c.Items[i].Quantity++
				return
			}
		}
		item.Quantity = 1
		c.Items = append(c.Items, item)
	})
}

// RemoveItem 移除指定标识的全部行，不存在时无操作
func (s *Store) RemoveItem(ctx context.Context, key string) Cart {
	return s.mutate(ctx, func(c *Cart) {
		kept := c.Items[:0]
		for _, item := range c.Items {
			if item.Key() != key {
				kept = append(kept, item)
			}
		}
		c.Items = kept
	})
}

// UpdateQuantity 设置数量，quantity <= 0 时移除该行
func (s *Store) UpdateQuantity(ctx context.Context, key string, quantity int) Cart {
	if quantity <= 0 {
		return s.RemoveItem(ctx, key)
	}
	return s.mutate(ctx, func(c *Cart) {
		for i := range c.Items {
			if c.Items[i].Key() == key {
				c.Items[i].Quantity = quantity
			}
		}
	})
}

// ClearCart 清空购物车
func (s *Store) ClearCart(ctx context.Context) Cart {
	return s.mutate(ctx, func(c *Cart) {
		c.Items = []LineItem{}
	})
}

func (s *Store) mutate(ctx context.Context, fn func(*Cart)) Cart {
	s.mu.Lock()
	next := s.state.clone()
	fn(&next)
	next.Total = computeTotal(next.Items)
	s.state = next
	s.version++
	version := s.version
	snapshot := next.clone()
	listeners := s.listenerList()
	s.mu.Unlock()

	s.persist(ctx, version, snapshot)
	for _, fn := range listeners {
		fn(snapshot.clone())
	}
	return snapshot
}

// persist 在独立锁内写回，跳过已被更新版本覆盖的快照
func (s *Store) persist(ctx context.Context, version uint64, snapshot Cart) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if version < s.persistedVersion {
		return
	}
	s.persistedVersion = version
	if s.backend == nil {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		logger.Errorw("cart_marshal_failed", "error", err)
		return
	}
	if err := s.backend.Set(ctx, constants.StorageKeyCart, string(raw)); err != nil {
		logger.Warnw("cart_persist_failed", "error", err)
	}
}

func (s *Store) load(ctx context.Context) (Cart, bool) {
	if s.backend == nil {
		return Cart{}, false
	}
	raw, found, err := s.backend.Get(ctx, constants.StorageKeyCart)
	if err != nil {
		logger.Warnw("cart_load_failed", "error", err)
		return Cart{}, false
	}
	if !found || raw == "" {
		return Cart{}, false
	}
	var stored Cart
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		logger.Warnw("cart_snapshot_corrupt", "error", err)
		return Cart{}, false
	}
	items := make([]LineItem, 0, len(stored.Items))
	for _, item := range stored.Items {
		if item.ID.IsZero() || item.Quantity < 1 {
			logger.Warnw("cart_snapshot_item_dropped", "id", item.ID.String(), "quantity", item.Quantity)
			continue
		}
		items = append(items, item)
	}
	return Cart{Items: items, Total: computeTotal(items)}, true
}

func (s *Store) onStorageChange(event storage.ChangeEvent) {
	if event.Key != constants.StorageKeyCart {
		return
	}
	s.Resync(context.Background())
}

// Resync 从存储重新加载状态（外部写入方修改了购物车）
func (s *Store) Resync(ctx context.Context) Cart {
	loaded, ok := s.load(ctx)
	if !ok {
		if s.backend != nil {
			if _, found, err := s.backend.Get(ctx, constants.StorageKeyCart); err != nil || found {
				// 读取失败或数据损坏时保留内存状态
				return s.Snapshot()
			}
		}
		loaded = Cart{Items: []LineItem{}, Total: computeTotal(nil)}
	}

	s.mu.Lock()
	s.state = loaded
	s.version++
	snapshot := loaded.clone()
	listeners := s.listenerList()
	s.mu.Unlock()

	logger.Debugw("cart_resynced", "items", len(snapshot.Items))
	for _, fn := range listeners {
		fn(snapshot.clone())
	}
	return snapshot
}

func (s *Store) listenerList() []Listener {
	list := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		list = append(list, fn)
	}
	return list
}
