package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stashbox/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// Connect builds a redis client and verifies it with a ping. The caller may
// run without a cache if this fails; postgres remains the source of truth.
func Connect(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return rdb, nil
}

// ItemCache keeps JSON-encoded items under item:{id} with a short TTL.
// Writers invalidate; readers repopulate.
type ItemCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewItemCache(rdb *redis.Client, ttl time.Duration) *ItemCache {
	return &ItemCache{rdb: rdb, ttl: ttl}
}

func itemKey(id string) string {
	return "item:" + id
}

func (c *ItemCache) GetItem(ctx context.Context, id string) (*model.Item, error) {
	data, err := c.rdb.Get(ctx, itemKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	item := &model.Item{}
	if err := json.Unmarshal(data, item); err != nil {
		// A bad payload is as good as a miss
		return nil, nil
	}
	return item, nil
}

func (c *ItemCache) SetItem(ctx context.Context, item *model.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	if err := c.rdb.Set(ctx, itemKey(item.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *ItemCache) DeleteItem(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, itemKey(id)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
