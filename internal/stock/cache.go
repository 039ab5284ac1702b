package stock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const summaryCacheKey = "stock:summary"

// SummaryCache caches the stock summary projection in Redis. Concurrent
// misses collapse into a single repository query via singleflight.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSummaryCache constructs the cache.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Get returns the cached summary, loading it through fetch on a miss.
func (c *SummaryCache) Get(ctx context.Context, fetch func() ([]ItemSummary, error)) ([]ItemSummary, error) {
	if c == nil || c.client == nil {
		return fetch()
	}

	payload, err := c.client.Get(ctx, summaryCacheKey).Bytes()
	if err == nil {
		var items []ItemSummary
		if err := json.Unmarshal(payload, &items); err == nil {
			return items, nil
		}
	}

	v, err, _ := c.group.Do(summaryCacheKey, func() (any, error) {
		items, err := fetch()
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(items); err == nil {
			_ = c.client.Set(ctx, summaryCacheKey, data, c.ttl).Err()
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ItemSummary), nil
}

// Invalidate drops the cached summary after a stock mutation.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, summaryCacheKey).Err()
}
