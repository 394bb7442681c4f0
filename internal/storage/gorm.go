package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pizzaria-cajazeiras/internal/models"
	"github.com/pizzaria-cajazeiras/internal/repository"
)

// GormBackend 基于数据库表的持久化存储
type GormBackend struct {
	repo  repository.StorageRepository
	scope string
}

// NewGormBackend 创建数据库存储，scope 用于隔离不同客户端
func NewGormBackend(repo repository.StorageRepository, scope string) *GormBackend {
	return &GormBackend{repo: repo, scope: scope}
}

// Get 读取键值
func (b *GormBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if b.repo == nil {
		return "", false, ErrUnavailable
	}
	entry, err := b.repo.WithContext(ctx).Get(b.scope, key)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if entry == nil {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Set 写入键值
func (b *GormBackend) Set(ctx context.Context, key, value string) error {
	if b.repo == nil {
		return ErrUnavailable
	}
	now := time.Now()
	err := b.repo.WithContext(ctx).Upsert(&models.StorageEntry{
		Scope:     b.scope,
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remove 删除键
func (b *GormBackend) Remove(ctx context.Context, key string) error {
	if b.repo == nil {
		return ErrUnavailable
	}
	if err := b.repo.WithContext(ctx).Delete(b.scope, key); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Keys 列出作用域内全部键
func (b *GormBackend) Keys(ctx context.Context) ([]string, error) {
	if b.repo == nil {
		return nil, ErrUnavailable
	}
	keys, err := b.repo.WithContext(ctx).ListKeys(b.scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return keys, nil
}
