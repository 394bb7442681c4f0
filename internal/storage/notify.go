package storage

import (
	"context"
	"sync"
)

// ChangeEvent 存储变更事件
type ChangeEvent struct {
	Key     string
	Origin  string
	Removed bool
}

// Bus 进程内存储变更通知总线
// 对应浏览器的 storage 事件：同一份存储的其他写入方可据此重新同步
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(ChangeEvent)
}

// NewBus 创建通知总线
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(ChangeEvent))}
}

// Subscribe 订阅变更，返回取消订阅函数
func (b *Bus) Subscribe(fn func(ChangeEvent)) func() {
	if b == nil || fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish 发布变更
func (b *Bus) Publish(event ChangeEvent) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]func(ChangeEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(event)
	}
}

// Watchable 可订阅外部变更的存储后端
type Watchable interface {
	// Watch 订阅非本写入方产生的变更
	Watch(fn func(ChangeEvent)) func()
}

// NotifyingBackend 在写入/删除后发布变更事件的存储包装
type NotifyingBackend struct {
	Backend
	bus    *Bus
	origin string
}

// WithNotify 包装存储后端，origin 标识写入方
func WithNotify(backend Backend, bus *Bus, origin string) *NotifyingBackend {
	return &NotifyingBackend{Backend: backend, bus: bus, origin: origin}
}

// Set 写入并通知
func (b *NotifyingBackend) Set(ctx context.Context, key, value string) error {
	if err := b.Backend.Set(ctx, key, value); err != nil {
		return err
	}
	b.bus.Publish(ChangeEvent{Key: key, Origin: b.origin})
	return nil
}

// Remove 删除并通知
func (b *NotifyingBackend) Remove(ctx context.Context, key string) error {
	if err := b.Backend.Remove(ctx, key); err != nil {
		return err
	}
	b.bus.Publish(ChangeEvent{Key: key, Origin: b.origin, Removed: true})
	return nil
}

// Watch 仅转发其他写入方的变更
func (b *NotifyingBackend) Watch(fn func(ChangeEvent)) func() {
	if fn == nil {
		return func() {}
	}
	return b.bus.Subscribe(func(event ChangeEvent) {
		if event.Origin == b.origin {
			return
		}
		fn(event)
	})
}
