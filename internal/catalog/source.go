package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pizzaria-cajazeiras/internal/repository"
)

// ErrEmptyCatalog 数据来源未返回任何条目
var ErrEmptyCatalog = errors.New("catalog source returned no pizzas")

//go:embed data/pizzas.json
var embeddedPizzas []byte

// Source 菜单主数据来源
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Pizza, error)
}

// StaticSource 内置菜单数据
type StaticSource struct {
	raw []byte
}

// NewStaticSource 创建内置数据来源，raw 为空时使用内置菜单
func NewStaticSource(raw []byte) *StaticSource {
	if raw == nil {
		raw = embeddedPizzas
	}
	return &StaticSource{raw: raw}
}

// Name 来源名称
func (s *StaticSource) Name() string { return "static" }

// Load 解析内置菜单
func (s *StaticSource) Load(_ context.Context) ([]Pizza, error) {
	var pizzas []Pizza
	if err := json.Unmarshal(s.raw, &pizzas); err != nil {
		return nil, fmt.Errorf("parse static catalog: %w", err)
	}
	if !valid(pizzas) {
		return nil, ErrEmptyCatalog
	}
	return pizzas, nil
}

// DatabaseSource 商品表数据来源
type DatabaseSource struct {
	repo repository.ProductRepository
}

// NewDatabaseSource 创建商品表数据来源
func NewDatabaseSource(repo repository.ProductRepository) *DatabaseSource {
	return &DatabaseSource{repo: repo}
}

// Name 来源名称
func (s *DatabaseSource) Name() string { return "database" }

// Load 读取上架商品
func (s *DatabaseSource) Load(ctx context.Context) ([]Pizza, error) {
	if s.repo == nil {
		return nil, ErrEmptyCatalog
	}
	products, err := s.repo.WithContext(ctx).ListActive()
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	pizzas := make([]Pizza, 0, len(products))
	for _, p := range products {
		pizzas = append(pizzas, FromProduct(p))
	}
	if !valid(pizzas) {
		return nil, ErrEmptyCatalog
	}
	return pizzas, nil
}

// DefaultPizzas 内置菜单（供初始化商品表使用）
func DefaultPizzas() ([]Pizza, error) {
	return NewStaticSource(nil).Load(context.Background())
}
