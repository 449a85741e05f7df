package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/petermazzocco/go-pereval-api/models"
	"github.com/redis/go-redis/v9"
)

const activityTypesKey = "pereval:activity_types:v1"

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     20,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ActivityCache keeps the activity-type lookup set in redis.
// A nil *ActivityCache is valid and always misses.
type ActivityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewActivityCache(client *redis.Client, ttl time.Duration) *ActivityCache {
	return &ActivityCache{client: client, ttl: ttl}
}

func (c *ActivityCache) Get(ctx context.Context) ([]models.ActivityType, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, activityTypesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var types []models.ActivityType
	if err := json.Unmarshal(raw, &types); err != nil {
		return nil, false, err
	}
	return types, true, nil
}

func (c *ActivityCache) Set(ctx context.Context, types []models.ActivityType) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(types)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, activityTypesKey, raw, c.ttl).Err()
}
