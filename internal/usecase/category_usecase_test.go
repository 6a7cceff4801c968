package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog_service/internal/catalog"
	"catalog_service/internal/domain"
	"catalog_service/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryUseCase(t *testing.T) {
	uc := NewCategoryUseCase(newMemCategoryRepo(), nil, quietLogger())
	ctx := context.Background()

	_, err := uc.CreateCategory(ctx, &domain.Category{Name: "   "})
	assert.EqualError(t, err, "category name cannot be empty")

	created, err := uc.CreateCategory(ctx, &domain.Category{Name: " Headlight "})
	require.NoError(t, err)
	assert.Equal(t, "Headlight", created.Name)

	_, err = uc.CreateCategory(ctx, &domain.Category{Name: "headlight"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = uc.UpdateCategory(ctx, &domain.Category{ID: created.ID, Name: ""})
	assert.EqualError(t, err, "category name cannot be empty for update")
	_, err = uc.UpdateCategory(ctx, &domain.Category{Name: "Wiper"})
	assert.EqualError(t, err, "invalid category ID for update")

	renamed, err := uc.UpdateCategory(ctx, &domain.Category{ID: created.ID, Name: "Headlights"})
	require.NoError(t, err)
	assert.Equal(t, "Headlights", renamed.Name)

	list, err := uc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: created.ID, Name: "Headlights"}}, list)

	require.NoError(t, uc.DeleteCategory(ctx, created.ID))
	_, err = uc.GetCategoryByID(ctx, created.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = uc.GetCategoryByID(ctx, -1)
	assert.EqualError(t, err, "invalid category ID")
}

type cachedCatalog struct {
	categories *memCategoryRepo
	configs    *memConfigRepo
	resolver   *catalog.Resolver
	uc         CategoryUseCase
	mr         *miniredis.Miniredis
}

func newCachedCatalog(t *testing.T) *cachedCatalog {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	categories := newMemCategoryRepo("Lamp Kits")
	configs := newMemConfigRepo(categories)
	cache := repository.NewCachedConfigRepository(configs, rdb, time.Minute, quietLogger())
	_, err := cache.UpsertConfig(context.Background(), &domain.CategoryConfig{
		CategoryID:   1,
		CategoryName: "Lamp Kits",
		Dimensions:   []domain.VariantDimension{{Label: "Voltage", Field: "spec_voltage", Active: true}},
		IsActive:     true,
	})
	require.NoError(t, err)

	return &cachedCatalog{
		categories: categories,
		configs:    configs,
		resolver:   catalog.NewResolver(cache, quietLogger()),
		uc:         NewCategoryUseCase(categories, cache, quietLogger()),
		mr:         mr,
	}
}

// cascade removes the stored config of a category the way the foreign key does.
func (c *cachedCatalog) cascade(categoryID int) {
	c.configs.mu.Lock()
	defer c.configs.mu.Unlock()
	delete(c.configs.configs, categoryID)
}

func TestDeleteCategoryDropsCachedConfig(t *testing.T) {
	c := newCachedCatalog(t)
	ctx := context.Background()

	require.Equal(t, catalog.SourceStored, c.resolver.Resolve(ctx, "Lamp Kits").Source)
	require.True(t, c.mr.Exists("catalog:config:lamp kits"))

	require.NoError(t, c.uc.DeleteCategory(ctx, 1))
	c.cascade(1)

	assert.False(t, c.mr.Exists("catalog:config:lamp kits"))
	res := c.resolver.Resolve(ctx, "Lamp Kits")
	assert.True(t, res.Fallback)
	assert.Equal(t, catalog.SourceDefault, res.Source)
}

func TestRenameCategoryDropsConfigCachedUnderOldName(t *testing.T) {
	c := newCachedCatalog(t)
	ctx := context.Background()

	require.Equal(t, catalog.SourceStored, c.resolver.Resolve(ctx, "Lamp Kits").Source)

	_, err := c.uc.UpdateCategory(ctx, &domain.Category{ID: 1, Name: "Bulb Kits"})
	require.NoError(t, err)
	c.configs.mu.Lock()
	cfg := c.configs.configs[1]
	cfg.CategoryName = "Bulb Kits"
	c.configs.configs[1] = cfg
	c.configs.mu.Unlock()

	assert.False(t, c.mr.Exists("catalog:config:lamp kits"))
	assert.Equal(t, catalog.SourceDefault, c.resolver.Resolve(ctx, "Lamp Kits").Source)
	assert.Equal(t, catalog.SourceStored, c.resolver.Resolve(ctx, "Bulb Kits").Source)
}

func TestDeleteMissingCategoryKeepsCache(t *testing.T) {
	c := newCachedCatalog(t)
	ctx := context.Background()
	c.resolver.Resolve(ctx, "Lamp Kits")

	err := c.uc.DeleteCategory(ctx, 42)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, c.mr.Exists("catalog:config:lamp kits"))
}
