package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 菜单商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"-"`                                          // 主键
	Code        string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"id"`              // 对外商品标识
	Name        string         `gorm:"type:varchar(120);not null" json:"name"`                       // 名称
	Description string         `gorm:"type:text" json:"description"`                                 // 配料描述
	Category    string         `gorm:"type:varchar(40);not null;index" json:"category"`              // 分类
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`           // 基础价格（M 尺寸）
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                          // 是否上架
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                            // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
