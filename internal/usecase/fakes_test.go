package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type memCategoryRepo struct {
	mu         sync.Mutex
	categories map[int]domain.Category
	nextID     int
}

func newMemCategoryRepo(names ...string) *memCategoryRepo {
	r := &memCategoryRepo{categories: map[int]domain.Category{}}
	for _, name := range names {
		_, _ = r.CreateCategory(context.Background(), &domain.Category{Name: name})
	}
	return r
}

func (r *memCategoryRepo) CreateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return nil, fmt.Errorf("category with name '%s' already exists", c.Name)
		}
	}
	r.nextID++
	c.ID = r.nextID
	r.categories[c.ID] = *c
	return c, nil
}

func (r *memCategoryRepo) GetCategoryByID(_ context.Context, id int) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, fmt.Errorf("category with id %d %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (r *memCategoryRepo) UpdateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return nil, fmt.Errorf("category with id %d %w", c.ID, domain.ErrNotFound)
	}
	r.categories[c.ID] = *c
	return c, nil
}

func (r *memCategoryRepo) DeleteCategory(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return fmt.Errorf("category with id %d %w", id, domain.ErrNotFound)
	}
	delete(r.categories, id)
	return nil
}

func (r *memCategoryRepo) ListCategories(context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Category{}
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memConfigRepo struct {
	mu         sync.Mutex
	categories *memCategoryRepo
	configs    map[int]domain.CategoryConfig
}

func newMemConfigRepo(categories *memCategoryRepo) *memConfigRepo {
	return &memConfigRepo{categories: categories, configs: map[int]domain.CategoryConfig{}}
}

func (r *memConfigRepo) GetConfigByCategoryID(_ context.Context, categoryID int) (*domain.CategoryConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[categoryID]
	if !ok {
		return nil, fmt.Errorf("config for category with id %d %w", categoryID, domain.ErrNotFound)
	}
	return &cfg, nil
}

func (r *memConfigRepo) FindConfigByCategoryName(_ context.Context, name string) (*domain.CategoryConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cfg := range r.configs {
		if strings.EqualFold(cfg.CategoryName, name) {
			out := cfg
			return &out, nil
		}
	}
	return nil, fmt.Errorf("config for category '%s' %w", name, domain.ErrNotFound)
}

func (r *memConfigRepo) UpsertConfig(_ context.Context, cfg *domain.CategoryConfig) (*domain.CategoryConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg.ID = cfg.CategoryID
	r.configs[cfg.CategoryID] = *cfg
	return cfg, nil
}

func (r *memConfigRepo) DeleteConfig(_ context.Context, categoryID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.configs[categoryID]; !ok {
		return fmt.Errorf("config for category with id %d %w", categoryID, domain.ErrNotFound)
	}
	delete(r.configs, categoryID)
	return nil
}

type memItemRepo struct {
	mu         sync.Mutex
	categories *memCategoryRepo
	items      map[int]domain.Item
	nextID     int
	updates    []map[string]interface{}
	listCalls  int
}

func newMemItemRepo(categories *memCategoryRepo) *memItemRepo {
	return &memItemRepo{categories: categories, items: map[int]domain.Item{}}
}

func (r *memItemRepo) withCategory(item domain.Item) domain.Item {
	item.Category = ""
	if c, err := r.categories.GetCategoryByID(context.Background(), item.CategoryID); err == nil {
		item.Category = c.Name
	}
	return item
}

func (r *memItemRepo) CreateItem(_ context.Context, item *domain.Item) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = *item
	out := r.withCategory(*item)
	return &out, nil
}

func (r *memItemRepo) GetItemByID(_ context.Context, id int) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("item with id %d %w", id, domain.ErrNotFound)
	}
	out := r.withCategory(item)
	return &out, nil
}

func (r *memItemRepo) UpdateItem(_ context.Context, id int, updates map[string]interface{}) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("item with id %d %w", id, domain.ErrNotFound)
	}
	r.updates = append(r.updates, updates)
	for key, value := range updates {
		switch key {
		case "name":
			item.Name = value.(string)
		case "stock":
			item.Stock = value.(int)
		case "category_id":
			item.CategoryID = value.(int)
		case "variant_type":
			item.VariantType = value.(string)
		case "color_temperature":
			item.ColorTemperature = value.(domain.Value)
		case "attributes":
			item.Attributes = value.(*domain.Attributes)
		}
	}
	r.items[id] = item
	out := r.withCategory(item)
	return &out, nil
}

func (r *memItemRepo) DeleteItem(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("item with id %d %w", id, domain.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

func (r *memItemRepo) ListItems(_ context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	ids := make([]int, 0, len(r.items))
	for id, item := range r.items {
		if filter.CategoryID > 0 && item.CategoryID != filter.CategoryID {
			continue
		}
		if filter.ParentID > 0 && item.ParentID != filter.ParentID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	out := []domain.Item{}
	for i := filter.Offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, r.withCategory(r.items[ids[i]]))
	}
	return out, nil
}
