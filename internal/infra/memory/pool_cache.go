package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"globetrotter/internal/app"
	"globetrotter/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	poolKey   = "pool"
	labelsKey = "labels"
)

// PoolCache caches the destination pool and candidate labels with a TTL to
// avoid hitting the backing store for every round.
type PoolCache struct {
	loader app.DestinationSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu     sync.Mutex
	pool   cachedEntry[[]domain.Destination]
	labels cachedEntry[[]string]
}

type cachedEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func NewPoolCache(loader app.DestinationSource, ttl time.Duration) *PoolCache {
	return &PoolCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PoolCache) FetchDestinationPool(ctx context.Context) ([]domain.Destination, error) {
	return load(c, ctx, poolKey, &c.pool, c.loader.FetchDestinationPool)
}

func (c *PoolCache) FetchCandidateLabels(ctx context.Context) ([]string, error) {
	return load(c, ctx, labelsKey, &c.labels, c.loader.FetchCandidateLabels)
}

// Invalidate drops cached entries so the next fetch reloads.
func (c *PoolCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool = cachedEntry[[]domain.Destination]{}
	c.labels = cachedEntry[[]string]{}
}

func load[T any](c *PoolCache, ctx context.Context, key string, entry *cachedEntry[T], fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := lookup(c, entry); ok {
		return v, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another caller filled the entry.
		if v, ok := lookup(c, entry); ok {
			return v, nil
		}
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		*entry = cachedEntry[T]{value: value, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func lookup[T any](c *PoolCache, entry *cachedEntry[T]) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return entry.value, entry.expiresAt.After(c.clock())
}

// ttlWithJitter must be called with c.mu held.
func (c *PoolCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
