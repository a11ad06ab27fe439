package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"globetrotter/internal/app"
	"globetrotter/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	destinationsKey = "globetrotter:destinations"
	labelsKey       = "globetrotter:labels"
)

// PoolCache caches reference data in Redis and falls back to a loader on miss.
// The pool is stored as: HSET globetrotter:destinations {id} {destination JSON}
// Labels are stored as:   SADD globetrotter:labels {city}...
type PoolCache struct {
	client *redis.Client
	loader app.DestinationSource
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPoolCache(client *redis.Client, loader app.DestinationSource, ttl time.Duration) *PoolCache {
	return &PoolCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PoolCache) FetchDestinationPool(ctx context.Context) ([]domain.Destination, error) {
	if pool, ok := c.cachedPool(ctx); ok {
		return pool, nil
	}

	result, err, _ := c.sf.Do(destinationsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := c.cachedPool(ctx); ok {
			return pool, nil
		}

		pool, err := c.loader.FetchDestinationPool(ctx)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return pool, nil
		}

		fields := make(map[string]interface{}, len(pool))
		for _, d := range pool {
			raw, err := json.Marshal(d)
			if err != nil {
				return nil, fmt.Errorf("encode destination %s: %w", d.ID, err)
			}
			fields[d.ID] = raw
		}
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, destinationsKey)
		pipe.HSet(ctx, destinationsKey, fields)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, destinationsKey, ttl)
		}
		// Cache fill is best effort; the loaded pool is still served.
		_, _ = pipe.Exec(ctx)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Destination), nil
}

func (c *PoolCache) FetchCandidateLabels(ctx context.Context) ([]string, error) {
	labels, err := c.client.SMembers(ctx, labelsKey).Result()
	if err == nil && len(labels) > 0 {
		sort.Strings(labels)
		return labels, nil
	}

	result, err, _ := c.sf.Do(labelsKey, func() (interface{}, error) {
		labels, err := c.loader.FetchCandidateLabels(ctx)
		if err != nil {
			return nil, err
		}
		if len(labels) == 0 {
			return labels, nil
		}
		members := make([]interface{}, len(labels))
		for i, l := range labels {
			members[i] = l
		}
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, labelsKey)
		pipe.SAdd(ctx, labelsKey, members...)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, labelsKey, ttl)
		}
		_, _ = pipe.Exec(ctx)
		return labels, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// Invalidate removes the cached pool and labels, e.g. after seeding.
func (c *PoolCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, destinationsKey, labelsKey).Err()
}

func (c *PoolCache) cachedPool(ctx context.Context) ([]domain.Destination, bool) {
	raw, err := c.client.HGetAll(ctx, destinationsKey).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	pool := make([]domain.Destination, 0, len(raw))
	for _, value := range raw {
		var d domain.Destination
		if err := json.Unmarshal([]byte(value), &d); err != nil {
			return nil, false
		}
		pool = append(pool, d)
	}
	// Hash order is unspecified; keep results stable.
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return pool, true
}

func (c *PoolCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
