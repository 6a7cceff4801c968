package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"catalog_service/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CachedConfigRepository keeps configurations looked up by category name in
// Redis. Redis failures are logged and never fail a call.
type CachedConfigRepository struct {
	next      domain.CategoryConfigRepository
	rdb       *redis.Client
	ttl       time.Duration
	keyPrefix string
	log       *logrus.Logger
}

func NewCachedConfigRepository(next domain.CategoryConfigRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedConfigRepository {
	return &CachedConfigRepository{
		next:      next,
		rdb:       rdb,
		ttl:       ttl,
		keyPrefix: "catalog:config:",
		log:       logger,
	}
}

func (c *CachedConfigRepository) key(name string) string {
	return c.keyPrefix + strings.ToLower(strings.TrimSpace(name))
}

func (c *CachedConfigRepository) GetConfigByCategoryID(ctx context.Context, categoryID int) (*domain.CategoryConfig, error) {
	return c.next.GetConfigByCategoryID(ctx, categoryID)
}

func (c *CachedConfigRepository) FindConfigByCategoryName(ctx context.Context, name string) (*domain.CategoryConfig, error) {
	key := c.key(name)
	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cfg domain.CategoryConfig
		if jsonErr := json.Unmarshal(data, &cfg); jsonErr == nil {
			c.log.Debugf("Cache: hit for %s", key)
			return &cfg, nil
		}
		c.log.Warnf("Cache: dropping undecodable entry %s", key)
		c.Forget(ctx, name)
	case errors.Is(err, redis.Nil):
		c.log.Debugf("Cache: miss for %s", key)
	default:
		c.log.Warnf("Cache: failed to read %s: %v", key, err)
	}

	cfg, err := c.next.FindConfigByCategoryName(ctx, name)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(cfg)
	if err != nil {
		c.log.Warnf("Cache: failed to encode configuration for %s: %v", key, err)
		return cfg, nil
	}
	if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.log.Warnf("Cache: failed to store %s: %v", key, err)
	}
	return cfg, nil
}

func (c *CachedConfigRepository) UpsertConfig(ctx context.Context, cfg *domain.CategoryConfig) (*domain.CategoryConfig, error) {
	saved, err := c.next.UpsertConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Forget(ctx, saved.CategoryName)
	return saved, nil
}

func (c *CachedConfigRepository) DeleteConfig(ctx context.Context, categoryID int) error {
	existing, lookupErr := c.next.GetConfigByCategoryID(ctx, categoryID)
	if err := c.next.DeleteConfig(ctx, categoryID); err != nil {
		return err
	}
	if lookupErr == nil {
		c.Forget(ctx, existing.CategoryName)
	}
	return nil
}

// Forget drops the entry cached under a category name. Category renames and
// deletes must call it: the cascade on category_configs never reaches the cache.
func (c *CachedConfigRepository) Forget(ctx context.Context, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	if err := c.rdb.Del(ctx, c.key(name)).Err(); err != nil {
		c.log.Warnf("Cache: failed to invalidate %s: %v", c.key(name), err)
	}
}
