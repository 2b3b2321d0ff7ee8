package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-storefront/internal/models"

	"github.com/go-redis/redis/v8"
)

const statsCacheKey = "storefront:admin_stats"

// StatsCache keeps the last computed AdminStats in Redis for TTL.
type StatsCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{Client: client, TTL: ttl}
}

// Get returns nil, nil on a cache miss.
func (c *StatsCache) Get(ctx context.Context) (*models.AdminStats, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	raw, err := c.Client.Get(ctx, statsCacheKey).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get stats from Redis: %w", err)
	}

	var stats models.AdminStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached stats: %w", err)
	}
	return &stats, nil
}

func (c *StatsCache) Set(ctx context.Context, stats *models.AdminStats) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := c.Client.Set(ctx, statsCacheKey, payload, c.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store stats in Redis: %w", err)
	}
	return nil
}

func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, statsCacheKey).Err()
}
