package repository

import (
	"context"

	"github.com/pizzaria-cajazeiras/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StorageRepository 持久化键值数据访问接口
type StorageRepository interface {
	Get(scope, key string) (*models.StorageEntry, error)
	Upsert(entry *models.StorageEntry) error
	Delete(scope, key string) error
	ListKeys(scope string) ([]string, error)
	WithContext(ctx context.Context) StorageRepository
}

// GormStorageRepository GORM 实现
type GormStorageRepository struct {
	db *gorm.DB
}

// NewStorageRepository 创建键值仓库
func NewStorageRepository(db *gorm.DB) *GormStorageRepository {
	return &GormStorageRepository{db: db}
}

// WithContext 绑定上下文
func (r *GormStorageRepository) WithContext(ctx context.Context) StorageRepository {
	if ctx == nil {
		return r
	}
	return &GormStorageRepository{db: r.db.WithContext(ctx)}
}

// Get 获取键值，不存在时返回 nil
func (r *GormStorageRepository) Get(scope, key string) (*models.StorageEntry, error) {
	var entries []models.StorageEntry
	if err := r.db.Where("scope = ? AND key = ?", scope, key).Limit(1).Find(&entries).Error; err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Upsert 写入或覆盖键值，(scope, key) 冲突时原地更新
func (r *GormStorageRepository) Upsert(entry *models.StorageEntry) error {
	if entry == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(entry).Error
}

// Delete 删除键值
func (r *GormStorageRepository) Delete(scope, key string) error {
	return r.db.Where("scope = ? AND key = ?", scope, key).Delete(&models.StorageEntry{}).Error
}

// ListKeys 列出作用域内全部键
func (r *GormStorageRepository) ListKeys(scope string) ([]string, error) {
	var keys []string
	if err := r.db.Model(&models.StorageEntry{}).Where("scope = ?", scope).Order("key asc").Pluck("key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
