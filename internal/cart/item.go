package cart

import (
	"github.com/pizzaria-cajazeiras/internal/models"
)

// LineItem 购物车行
type LineItem struct {
	ID          models.ItemID `json:"id"`
	Size        string        `json:"size,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	Price       models.Money  `json:"price"`
	Quantity    int           `json:"quantity"`
}

// Key 行标识：无尺寸时为商品 id，否则为 id-尺寸
func (i LineItem) Key() string {
	return KeyOf(i.ID, i.Size)
}

// Subtotal 行小计
func (i LineItem) Subtotal() models.Money {
	return i.Price.MulInt(i.Quantity)
}

// KeyOf 根据商品 id 与尺寸生成行标识
func KeyOf(id models.ItemID, size string) string {
	if size == "" {
		return id.String()
	}
	return id.String() + "-" + size
}

// Cart 购物车快照
type Cart struct {
	Items []LineItem   `json:"items"`
	Total models.Money `json:"total"`
}

// Count 商品总件数
func (c Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Find 按行标识查找
func (c Cart) Find(key string) (LineItem, bool) {
	for _, item := range c.Items {
		if item.Key() == key {
			return item, true
		}
	}
	return LineItem{}, false
}

func (c Cart) clone() Cart {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, Total: c.Total}
}

func computeTotal(items []LineItem) models.Money {
	total := models.ZeroMoney()
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
