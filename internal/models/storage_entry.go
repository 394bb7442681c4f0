package models

import "time"

// StorageEntry 持久化键值存储表
// Scope 区分不同客户端，Key 为客户端视角下的存储键
type StorageEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                     // 主键
	Scope     string    `gorm:"type:varchar(80);not null;uniqueIndex:idx_storage_scope_key" json:"scope"` // 客户端作用域
	Key       string    `gorm:"type:varchar(191);not null;uniqueIndex:idx_storage_scope_key" json:"key"`  // 存储键
	Value     string    `gorm:"type:text;not null" json:"value"`                                          // 存储值（JSON 文本）
	CreatedAt time.Time `json:"created_at"`                                                               // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                                  // 更新时间
}

// TableName 指定表名
func (StorageEntry) TableName() string {
	return "storage_entries"
}
