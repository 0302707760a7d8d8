package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tableside/internal/domain/menu"

	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - menu:all - full menu listing, MenuTTL
// - menu:item:{id} - single menu item, MenuTTL

const menuAllKey = "menu:all"

// CacheConfig contains configuration for caching
type CacheConfig struct {
	MenuTTL time.Duration // TTL for menu cache (default 5m)
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MenuTTL: 5 * time.Minute,
	}
}

// CacheStore handles caching in Redis
type CacheStore struct {
	client *goredis.Client
	config CacheConfig
}

// NewCacheStore creates a new cache store
func NewCacheStore(client *goredis.Client, config CacheConfig) *CacheStore {
	if config.MenuTTL <= 0 {
		config.MenuTTL = DefaultCacheConfig().MenuTTL
	}
	return &CacheStore{
		client: client,
		config: config,
	}
}

// GetMenu returns the cached menu. A miss returns nil, nil.
func (c *CacheStore) GetMenu(ctx context.Context) ([]menu.MenuItem, error) {
	data, err := c.client.Get(ctx, menuAllKey).Result()
	if err == goredis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var items []menu.MenuItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SetMenu stores the full menu listing
func (c *CacheStore) SetMenu(ctx context.Context, items []menu.MenuItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, menuAllKey, data, c.config.MenuTTL).Err()
}

// GetMenuItem retrieves one item from cache
func (c *CacheStore) GetMenuItem(ctx context.Context, id uint) (*menu.MenuItem, error) {
	data, err := c.client.Get(ctx, menuItemKey(id)).Result()
	if err == goredis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var item menu.MenuItem
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// SetMenuItem stores one item
func (c *CacheStore) SetMenuItem(ctx context.Context, item *menu.MenuItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, menuItemKey(item.ID), data, c.config.MenuTTL).Err()
}

// InvalidateMenu drops the listing and, when given, individual items.
func (c *CacheStore) InvalidateMenu(ctx context.Context, ids ...uint) error {
	keys := []string{menuAllKey}
	for _, id := range ids {
		keys = append(keys, menuItemKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

// Ping checks if Redis is available
func (c *CacheStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func menuItemKey(id uint) string {
	return fmt.Sprintf("menu:item:%d", id)
}
