package catalog

import (
	"strings"

	"github.com/pizzaria-cajazeiras/internal/cart"
	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/models"

	"github.com/shopspring/decimal"
)

// Pizza 菜单条目，价格为 M 尺寸基础价
type Pizza struct {
	ID          models.ItemID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       models.Money  `json:"price"`
	Category    string        `json:"category"`
}

var sizeFactors = map[string]decimal.Decimal{
	constants.SizeSmall:  decimal.NewFromFloat(0.8),
	constants.SizeMedium: decimal.NewFromInt(1),
	constants.SizeLarge:  decimal.NewFromFloat(1.2),
}

// NormalizeSize 规范化尺寸，未知尺寸返回 false，空值视为 M
func NormalizeSize(size string) (string, bool) {
	size = strings.ToUpper(strings.TrimSpace(size))
	if size == "" {
		return constants.SizeMedium, true
	}
	if _, ok := sizeFactors[size]; !ok {
		return "", false
	}
	return size, true
}

// PriceForSize 按尺寸计算价格：P 为 80%，G 为 120%
func PriceForSize(base models.Money, size string) models.Money {
	factor, ok := sizeFactors[size]
	if !ok {
		return base
	}
	return models.NewMoneyFromDecimal(base.Decimal.Mul(factor))
}

// Variant 生成指定尺寸的购物车行
func Variant(p Pizza, size string) cart.LineItem {
	normalized, ok := NormalizeSize(size)
	if !ok {
		normalized = constants.SizeMedium
	}
	return cart.LineItem{
		ID:          p.ID,
		Size:        normalized,
		Name:        p.Name + " (" + normalized + ")",
		Description: p.Description,
		Category:    p.Category,
		Price:       PriceForSize(p.Price, normalized),
	}
}

// Find 按 id 查找
func Find(pizzas []Pizza, id models.ItemID) (Pizza, bool) {
	for _, p := range pizzas {
		if p.ID == id {
			return p, true
		}
	}
	return Pizza{}, false
}

// Filter 按分类过滤：all 全部，salgadas 非甜品，doces 甜品，其他值按分类精确匹配
func Filter(pizzas []Pizza, category string) []Pizza {
	category = strings.TrimSpace(category)
	out := make([]Pizza, 0, len(pizzas))
	for _, p := range pizzas {
		switch strings.ToLower(category) {
		case "", constants.CategoryFilterAll:
			out = append(out, p)
		case constants.CategoryFilterSavory:
			if p.Category != constants.CategorySweet {
				out = append(out, p)
			}
		case constants.CategoryFilterSweet:
			if p.Category == constants.CategorySweet {
				out = append(out, p)
			}
		default:
			if strings.EqualFold(p.Category, category) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Categories 按首次出现顺序返回去重后的分类
func Categories(pizzas []Pizza) []string {
	seen := make(map[string]struct{}, len(pizzas))
	out := make([]string, 0)
	for _, p := range pizzas {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// EmergencyCatalog 所有数据来源都失败时使用的最小菜单
func EmergencyCatalog() []Pizza {
	return []Pizza{{
		ID:          "emergency-1",
		Name:        "Pizza de Emergência",
		Description: "Disponível quando os dados não puderam ser carregados",
		Price:       models.NewMoneyFromFloat(30),
		Category:    constants.CategoryTraditional,
	}}
}

// FromProduct 商品表记录转换为菜单条目
func FromProduct(p models.Product) Pizza {
	return Pizza{
		ID:          models.ItemID(p.Code),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.PriceAmount,
		Category:    p.Category,
	}
}

func valid(pizzas []Pizza) bool {
	return len(pizzas) > 0
}
