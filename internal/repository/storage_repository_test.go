package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pizzaria-cajazeiras/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupStorageRepositoryTest(t *testing.T) (*GormStorageRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:storage_repository_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrator().DropTable(&models.StorageEntry{}); err != nil {
		t.Fatalf("drop storage entries failed: %v", err)
	}
	if err := db.AutoMigrate(&models.StorageEntry{}); err != nil {
		t.Fatalf("migrate storage entries failed: %v", err)
	}
	return NewStorageRepository(db), db
}

func TestStorageRepositoryUpsertOverwrites(t *testing.T) {
	repo, db := setupStorageRepositoryTest(t)
	now := time.Now()
	if err := repo.Upsert(&models.StorageEntry{Scope: "device-1", Key: "cart", Value: "[]", UpdatedAt: now}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	later := now.Add(time.Minute)
	if err := repo.Upsert(&models.StorageEntry{Scope: "device-1", Key: "cart", Value: `[{"id":"1"}]`, UpdatedAt: later}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.StorageEntry{}).Where("scope = ? AND key = ?", "device-1", "cart").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert should keep a single row, got %d", count)
	}
	entry, err := repo.Get("device-1", "cart")
	if err != nil || entry == nil {
		t.Fatalf("get failed: %v", err)
	}
	if entry.Value != `[{"id":"1"}]` || entry.UpdatedAt.Unix() != later.Unix() {
		t.Fatalf("upsert should update value and updated_at: %+v", entry)
	}
	if missing, err := repo.Get("device-1", "nope"); err != nil || missing != nil {
		t.Fatalf("missing key should return nil, got %+v %v", missing, err)
	}
}

func TestStorageRepositoryConcurrentUpsertSameKey(t *testing.T) {
	repo, db := setupStorageRepositoryTest(t)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Upsert(&models.StorageEntry{
				Scope:     "device-1",
				Key:       "__storage_test__",
				Value:     fmt.Sprintf("v%d", i),
				UpdatedAt: time.Now(),
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent upsert failed: %v", err)
		}
	}

	var count int64
	if err := db.Model(&models.StorageEntry{}).Where("scope = ? AND key = ?", "device-1", "__storage_test__").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row, got %d", count)
	}
}
