package main

import (
	"github.com/pizzaria-cajazeiras/internal/catalog"
	"github.com/pizzaria-cajazeiras/internal/config"
	"github.com/pizzaria-cajazeiras/internal/logger"
	"github.com/pizzaria-cajazeiras/internal/models"
	"github.com/pizzaria-cajazeiras/internal/repository"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	pizzas, err := catalog.DefaultPizzas()
	if err != nil {
		stdLog.Fatalf("Failed to load default menu: %v", err)
	}

	repo := repository.NewProductRepository(models.DB)
	created, skipped := 0, 0
	for i, p := range pizzas {
		existing, err := repo.GetByCode(p.ID.String())
		if err != nil {
			stdLog.Fatalf("Failed to query product %s: %v", p.ID, err)
		}
		if existing != nil {
			skipped++
			continue
		}
		product := &models.Product{
			Code:        p.ID.String(),
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			PriceAmount: p.Price,
			IsActive:    true,
			SortOrder:   i,
		}
		if err := repo.Create(product); err != nil {
			stdLog.Fatalf("Failed to create product %s: %v", p.ID, err)
		}
		created++
	}

	logger.Infow("seed_products_done", "created", created, "skipped", skipped, "total", len(pizzas))
}
