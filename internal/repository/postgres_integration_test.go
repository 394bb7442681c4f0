//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pizzaria-cajazeiras/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.Product{},
		&models.StorageEntry{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := models.MigrateDB(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresProductRepository(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	for i, code := range []string{"1", "2", "3"} {
		if err := repo.Create(&models.Product{
			Code:        code,
			Name:        "Pizza " + code,
			Category:    "Tradicional",
			PriceAmount: models.NewMoneyFromFloat(21.5),
			IsActive:    code != "3",
			SortOrder:   i,
		}); err != nil {
			t.Fatalf("create product failed: %v", err)
		}
	}
	if err := db.Model(&models.Product{}).Where("code = ?", "3").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	products, err := repo.ListActive()
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(products) != 2 || products[0].Code != "1" {
		t.Fatalf("unexpected active products: %+v", products)
	}
	if !products[0].PriceAmount.Equal(models.NewMoneyFromFloat(21.5)) {
		t.Fatalf("decimal price mismatch: %s", products[0].PriceAmount.String())
	}
	got, err := repo.GetByCode("2")
	if err != nil || got == nil {
		t.Fatalf("get by code failed: %v", err)
	}
}

func TestPostgresStorageRepository(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewStorageRepository(db)

	now := time.Now()
	if err := repo.Upsert(&models.StorageEntry{Scope: "device-1", Key: "cart", Value: `[]`, UpdatedAt: now}); err != nil {
		t.Fatalf("insert entry failed: %v", err)
	}
	if err := repo.Upsert(&models.StorageEntry{Scope: "device-1", Key: "cart", Value: `[{"id":"1"}]`, UpdatedAt: now}); err != nil {
		t.Fatalf("update entry failed: %v", err)
	}
	if err := repo.Upsert(&models.StorageEntry{Scope: "device-2", Key: "cart", Value: `[]`, UpdatedAt: now}); err != nil {
		t.Fatalf("insert other scope failed: %v", err)
	}

	entry, err := repo.Get("device-1", "cart")
	if err != nil || entry == nil || entry.Value != `[{"id":"1"}]` {
		t.Fatalf("unexpected entry: %+v %v", entry, err)
	}
	keys, err := repo.ListKeys("device-1")
	if err != nil || len(keys) != 1 {
		t.Fatalf("unexpected keys: %v %v", keys, err)
	}
	if err := repo.Delete("device-1", "cart"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if entry, _ := repo.Get("device-1", "cart"); entry != nil {
		t.Fatalf("entry should be deleted")
	}
	if entry, _ := repo.Get("device-2", "cart"); entry == nil {
		t.Fatalf("other scope must survive")
	}
}
