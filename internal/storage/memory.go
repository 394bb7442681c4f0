package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend 进程内键值存储
// 用作会话级存储（随客户端会话销毁），也可作为无数据库时的持久化替代
type MemoryBackend struct {
	mu         sync.RWMutex
	data       map[string]string
	usedBytes  int64
	quotaBytes int64
	disabled   bool
}

// NewMemoryBackend 创建进程内存储，quotaBytes <= 0 表示不限制容量
func NewMemoryBackend(quotaBytes int64) *MemoryBackend {
	return &MemoryBackend{
		data:       make(map[string]string),
		quotaBytes: quotaBytes,
	}
}

// SetDisabled 模拟存储被禁用
func (b *MemoryBackend) SetDisabled(disabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disabled = disabled
}

// Get 读取键值
func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.disabled {
		return "", false, ErrUnavailable
	}
	value, ok := b.data[key]
	return value, ok, nil
}

// Set 写入键值，超出容量时返回 ErrQuotaExceeded
func (b *MemoryBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disabled {
		return ErrUnavailable
	}
	next := b.usedBytes + entryBytes(key, value)
	if old, ok := b.data[key]; ok {
		next -= entryBytes(key, old)
	}
	if b.quotaBytes > 0 && next > b.quotaBytes {
		return ErrQuotaExceeded
	}
	b.data[key] = value
	b.usedBytes = next
	return nil
}

// Remove 删除键
func (b *MemoryBackend) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disabled {
		return ErrUnavailable
	}
	if old, ok := b.data[key]; ok {
		b.usedBytes -= entryBytes(key, old)
		delete(b.data, key)
	}
	return nil
}

// Keys 列出全部键（按字典序）
func (b *MemoryBackend) Keys(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.disabled {
		return nil, ErrUnavailable
	}
	keys := make([]string, 0, len(b.data))
	for key := range b.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// size 当前估算占用
func (b *MemoryBackend) size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usedBytes
}

func entryBytes(key, value string) int64 {
	return ApproxBytes(key) + ApproxBytes(value)
}

// MemoryStore 按作用域划分的进程内存储集合
type MemoryStore struct {
	mu         sync.Mutex
	quotaBytes int64
	scopes     map[string]*MemoryBackend
}

// NewMemoryStore 创建进程内存储集合
func NewMemoryStore(quotaBytes int64) *MemoryStore {
	return &MemoryStore{
		quotaBytes: quotaBytes,
		scopes:     make(map[string]*MemoryBackend),
	}
}

// Scope 获取指定作用域的存储，不存在时创建
func (s *MemoryStore) Scope(scope string) Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	backend, ok := s.scopes[scope]
	if !ok {
		backend = NewMemoryBackend(s.quotaBytes)
		s.scopes[scope] = backend
	}
	return backend
}
