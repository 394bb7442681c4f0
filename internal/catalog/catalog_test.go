package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pizzaria-cajazeiras/internal/cache"
	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/models"
	"github.com/pizzaria-cajazeiras/internal/repository"
	"github.com/pizzaria-cajazeiras/internal/storage"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeSource struct {
	pizzas []Pizza
	err    error
	calls  int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(context.Context) ([]Pizza, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pizzas, nil
}

func newTestLoader(source Source) (*Loader, *cache.Service, *storage.MemoryBackend) {
	local := storage.NewMemoryBackend(0)
	cacheSvc := cache.NewService(local, storage.NewMemoryBackend(0), cache.Config{})
	loader := NewLoader(source, cacheSvc, local, LoaderConfig{})
	loader.sleep = func(context.Context, time.Duration) error { return nil }
	return loader, cacheSvc, local
}

func threePizzas() []Pizza {
	return []Pizza{
		{ID: "1", Name: "A Moda da Casa", Price: models.NewMoneyFromFloat(30), Category: constants.CategoryTraditional},
		{ID: "5", Name: "Calabresa Especial", Price: models.NewMoneyFromFloat(22), Category: constants.CategorySpecial},
		{ID: "11", Name: "Brigadeiro", Price: models.NewMoneyFromFloat(23), Category: constants.CategorySweet},
	}
}

func TestStaticSourceLoadsEmbeddedMenu(t *testing.T) {
	pizzas, err := NewStaticSource(nil).Load(context.Background())
	if err != nil {
		t.Fatalf("load embedded menu failed: %v", err)
	}
	if len(pizzas) != 14 {
		t.Fatalf("expected 14 pizzas, got %d", len(pizzas))
	}
	first := pizzas[0]
	if first.ID != "1" || first.Name != "A Moda da Casa" || !first.Price.Equal(models.NewMoneyFromFloat(30)) {
		t.Fatalf("unexpected first pizza: %+v", first)
	}
	if _, err := NewStaticSource([]byte("[]")).Load(context.Background()); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("empty static data should be rejected, got %v", err)
	}
	if _, err := NewStaticSource([]byte("{")).Load(context.Background()); err == nil {
		t.Fatalf("invalid static data should fail")
	}
}

func TestLoaderPrimaryWritesCache(t *testing.T) {
	ctx := context.Background()
	loader, cacheSvc, _ := newTestLoader(NewStaticSource(nil))

	state := loader.Load(ctx)
	if state.Status != StatusReady || state.Source != OriginPrimary || state.Offline {
		t.Fatalf("unexpected state: %+v", state)
	}
	if len(state.Pizzas) != 14 {
		t.Fatalf("expected 14 pizzas, got %d", len(state.Pizzas))
	}
	var cached []Pizza
	if !cacheSvc.GetCache(ctx, constants.CacheKeyPizzas, &cached, cache.GetOptions{}) || len(cached) != 14 {
		t.Fatalf("primary data should be cached, got %d", len(cached))
	}
}

func TestLoaderFallsBackToExpiredCache(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{err: errors.New("boom")}
	loader, _, local := newTestLoader(source)

	envelope := fmt.Sprintf(`{"data":%s,"meta":{"timestamp":1,"expires":2,"version":"1.0"}}`, mustJSON(t, threePizzas()))
	_ = local.Set(ctx, constants.CachePrefix+constants.CacheKeyPizzas, envelope)

	state := loader.Load(ctx)
	if state.Source != OriginCache || !state.Offline || state.Status != StatusReady {
		t.Fatalf("unexpected state: %+v", state)
	}
	if len(state.Pizzas) != 3 {
		t.Fatalf("expected the 3 cached pizzas, got %d", len(state.Pizzas))
	}
	for _, p := range state.Pizzas {
		if p.ID == "emergency-1" {
			t.Fatalf("emergency entry must not be used when cache is present")
		}
	}
}

func TestLoaderFallsBackToLegacyKey(t *testing.T) {
	ctx := context.Background()
	loader, _, local := newTestLoader(&fakeSource{})
	_ = local.Set(ctx, constants.StorageKeyLegacyPizzas, mustJSON(t, threePizzas()[:2]))

	state := loader.Load(ctx)
	if state.Source != OriginLegacy || len(state.Pizzas) != 2 || !state.Offline {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestLoaderEmergencyCatalog(t *testing.T) {
	ctx := context.Background()
	loader, _, local := newTestLoader(&fakeSource{err: errors.New("boom")})
	_ = local.Set(ctx, constants.StorageKeyLegacyPizzas, "not json")

	state := loader.Load(ctx)
	if state.Source != OriginEmergency || !state.Offline || state.Status != StatusReady {
		t.Fatalf("unexpected state: %+v", state)
	}
	if len(state.Pizzas) != 1 {
		t.Fatalf("expected a single emergency pizza, got %d", len(state.Pizzas))
	}
	p := state.Pizzas[0]
	if p.ID != "emergency-1" || p.Name != "Pizza de Emergência" || p.Category != constants.CategoryTraditional {
		t.Fatalf("unexpected emergency pizza: %+v", p)
	}
	if !p.Price.Equal(models.NewMoneyFromFloat(30)) {
		t.Fatalf("unexpected emergency price: %s", p.Price.String())
	}
}

func TestLoaderRetry(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{err: errors.New("boom")}
	loader, cacheSvc, local := newTestLoader(source)
	_ = local.Set(ctx, constants.StorageKeyLegacyPizzas, mustJSON(t, threePizzas()))
	cacheSvc.SetCache(ctx, constants.CacheKeyPizzas, threePizzas(), cache.SetOptions{})

	var waited time.Duration
	loader.sleep = func(_ context.Context, d time.Duration) error {
		waited = d
		return nil
	}

	state := loader.Retry(ctx)
	if state.Status != StatusError || state.RetryCount != 1 {
		t.Fatalf("failed retry should end in error state: %+v", state)
	}
	if waited != time.Second {
		t.Fatalf("retry should wait the default 1s delay, waited %s", waited)
	}
	if _, ok, _ := local.Get(ctx, constants.StorageKeyLegacyPizzas); ok {
		t.Fatalf("retry should remove the legacy key")
	}
	var cached []Pizza
	if cacheSvc.GetCache(ctx, constants.CacheKeyPizzas, &cached, cache.GetOptions{IgnoreExpiry: true}) {
		t.Fatalf("retry should remove the cached catalog")
	}

	source.err = nil
	source.pizzas = threePizzas()
	state = loader.Retry(ctx)
	if state.Status != StatusReady || state.Source != OriginPrimary || state.RetryCount != 2 {
		t.Fatalf("successful retry should be ready from primary: %+v", state)
	}
	if !cacheSvc.GetCache(ctx, constants.CacheKeyPizzas, &cached, cache.GetOptions{}) {
		t.Fatalf("successful retry should repopulate the cache")
	}
}

func TestLoaderRetryInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source := &fakeSource{pizzas: threePizzas()}
	loader, _, _ := newTestLoader(source)
	loader.sleep = sleepContext

	state := loader.Retry(ctx)
	if state.Status != StatusError {
		t.Fatalf("cancelled retry should end in error, got %+v", state)
	}
	if source.calls != 0 {
		t.Fatalf("cancelled retry should not hit the source")
	}
}

func TestLoaderSetOnline(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{err: errors.New("boom")}
	loader, _, _ := newTestLoader(source)

	if state := loader.SetOnline(ctx, false); !state.Offline {
		t.Fatalf("offline event should set the flag")
	}
	loader.Retry(ctx)
	if loader.State().Status != StatusError {
		t.Fatalf("expected error state")
	}

	source.err = nil
	source.pizzas = threePizzas()
	state := loader.SetOnline(ctx, true)
	if state.Offline || state.Status != StatusReady || state.Source != OriginPrimary {
		t.Fatalf("coming back online in error state should retry: %+v", state)
	}

	calls := source.calls
	loader.SetOnline(ctx, true)
	if source.calls != calls {
		t.Fatalf("online event without error state must not reload")
	}
}

func TestLoaderEnsureLoadedOnce(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{pizzas: threePizzas()}
	loader, _, _ := newTestLoader(source)
	if loader.State().Status != StatusIdle {
		t.Fatalf("new loader should be idle")
	}
	loader.EnsureLoaded(ctx)
	loader.EnsureLoaded(ctx)
	if source.calls != 1 {
		t.Fatalf("ensure loaded should hit the source once, got %d", source.calls)
	}
	state := loader.State()
	state.Pizzas[0].Name = "mutated"
	if loader.Pizzas()[0].Name == "mutated" {
		t.Fatalf("state snapshots must not alias loader state")
	}
}

func TestPriceForSizeAndVariant(t *testing.T) {
	base := models.NewMoneyFromFloat(23)
	cases := map[string]float64{
		constants.SizeSmall:  18.40,
		constants.SizeMedium: 23,
		constants.SizeLarge:  27.60,
	}
	for size, want := range cases {
		if got := PriceForSize(base, size); !got.Equal(models.NewMoneyFromFloat(want)) {
			t.Fatalf("size %s want %.2f got %s", size, want, got.String())
		}
	}

	p := Pizza{ID: "3", Name: "Frango com Catupiry", Description: "frango", Price: base, Category: constants.CategoryTraditional}
	item := Variant(p, "g")
	if item.Size != constants.SizeLarge || item.Name != "Frango com Catupiry (G)" || item.Key() != "3-G" {
		t.Fatalf("unexpected variant: %+v", item)
	}
	if def := Variant(p, ""); def.Size != constants.SizeMedium || !def.Price.Equal(base) {
		t.Fatalf("empty size should default to M: %+v", def)
	}
	if _, ok := NormalizeSize("XL"); ok {
		t.Fatalf("unknown size should be rejected")
	}
}

func TestFilterAndCategories(t *testing.T) {
	pizzas, _ := DefaultPizzas()
	if got := len(Filter(pizzas, constants.CategoryFilterAll)); got != 14 {
		t.Fatalf("all want 14 got %d", got)
	}
	if got := len(Filter(pizzas, constants.CategoryFilterSavory)); got != 10 {
		t.Fatalf("salgadas want 10 got %d", got)
	}
	if got := len(Filter(pizzas, constants.CategoryFilterSweet)); got != 4 {
		t.Fatalf("doces want 4 got %d", got)
	}
	if got := len(Filter(pizzas, "especial")); got != 1 {
		t.Fatalf("exact category want 1 got %d", got)
	}
	categories := Categories(pizzas)
	if strings.Join(categories, ",") != "Tradicional,Especial,Doce" {
		t.Fatalf("unexpected categories: %v", categories)
	}
	if _, ok := Find(pizzas, "14"); !ok {
		t.Fatalf("find by id failed")
	}
}

func TestDatabaseSource(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open("file:catalog_database_source?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateDB(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	repo := repository.NewProductRepository(db)
	source := NewDatabaseSource(repo)
	if _, err := source.Load(ctx); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("empty table should be rejected, got %v", err)
	}

	for i, p := range threePizzas() {
		product := &models.Product{
			Code:        p.ID.String(),
			Name:        p.Name,
			Category:    p.Category,
			PriceAmount: p.Price,
			IsActive:    true,
			SortOrder:   i,
		}
		if err := repo.Create(product); err != nil {
			t.Fatalf("create product failed: %v", err)
		}
	}
	pizzas, err := source.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(pizzas) != 3 || pizzas[2].ID != "11" || !pizzas[2].Price.Equal(models.NewMoneyFromFloat(23)) {
		t.Fatalf("unexpected pizzas: %+v", pizzas)
	}
}

func mustJSON(t *testing.T, pizzas []Pizza) string {
	t.Helper()
	items := make([]string, 0, len(pizzas))
	for _, p := range pizzas {
		items = append(items, fmt.Sprintf(`{"id":%q,"name":%q,"description":%q,"price":%s,"category":%q}`,
			p.ID.String(), p.Name, p.Description, p.Price.String(), p.Category))
	}
	return "[" + strings.Join(items, ",") + "]"
}
