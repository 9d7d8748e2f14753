package recommendations

import (
	"context"
	"sync"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultTTL applies when Set is called with a non-positive ttl
	DefaultTTL = 60 * time.Minute

	// DefaultSweepInterval is how often a started cache purges expired entries
	DefaultSweepInterval = 5 * time.Minute
)

// entry is one cached result list with its own lifetime
type entry[V any] struct {
	value     V
	createdAt time.Time
	ttl       time.Duration
}

func (e entry[V]) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Cache is an in-memory TTL cache keyed by content id. Entries never outlive
// their TTL: an expired entry is dropped by the first Get that sees it or by
// the periodic sweep, whichever comes first. The sweep only runs between
// Start and Stop so its lifetime belongs to the host application.
type Cache[V any] struct {
	name          string
	now           func() time.Time
	sweepInterval time.Duration

	mu      sync.Mutex
	entries map[string]entry[V]

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// CacheOption configures a Cache
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	name          string
	now           func() time.Time
	sweepInterval time.Duration
}

// WithClock replaces time.Now, used by tests to simulate the passage of time
func WithClock(now func() time.Time) CacheOption {
	return func(o *cacheOptions) { o.now = now }
}

// WithSweepInterval overrides the 5 minute sweep period
func WithSweepInterval(d time.Duration) CacheOption {
	return func(o *cacheOptions) { o.sweepInterval = d }
}

// WithName labels the cache in metrics and logs
func WithName(name string) CacheOption {
	return func(o *cacheOptions) { o.name = name }
}

// NewCache creates an empty cache. The sweep is not running until Start.
func NewCache[V any](opts ...CacheOption) *Cache[V] {
	o := cacheOptions{
		name:          "recommendations",
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sweepInterval <= 0 {
		o.sweepInterval = DefaultSweepInterval
	}

	return &Cache[V]{
		name:          o.name,
		now:           o.now,
		sweepInterval: o.sweepInterval,
		entries:       make(map[string]entry[V]),
	}
}

// Get returns the cached value if it is still within its TTL. An expired entry
// is deleted as a side effect.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	m := metrics.Get()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		m.CacheMissesTotal.WithLabelValues(c.name).Inc()
		return zero, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		size := len(c.entries)
		c.mu.Unlock()
		m.CacheMissesTotal.WithLabelValues(c.name).Inc()
		m.CacheEvictionsTotal.WithLabelValues(c.name).Inc()
		m.CacheEntries.WithLabelValues(c.name).Set(float64(size))
		return zero, false
	}
	c.mu.Unlock()

	m.CacheHitsTotal.WithLabelValues(c.name).Inc()
	return e.value, true
}

// Set inserts or overwrites key unconditionally; the last writer wins.
// A non-positive ttl means DefaultTTL.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, createdAt: c.now(), ttl: ttl}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.Get().CacheEntries.WithLabelValues(c.name).Set(float64(size))
}

// Delete removes key if present
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep deletes every expired entry and returns how many were removed
func (c *Cache[V]) Sweep() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	m := metrics.Get()
	if removed > 0 {
		m.CacheEvictionsTotal.WithLabelValues(c.name).Add(float64(removed))
	}
	m.CacheEntries.WithLabelValues(c.name).Set(float64(size))
	return removed
}

// Start begins sweeping on the configured interval. Calling Start on a
// running cache does nothing.
func (c *Cache[V]) Start() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	logger.Log.Info("🧹 Starting cache sweep",
		zap.String("cache", c.name),
		zap.Duration("interval", c.sweepInterval),
	)
	go c.run(ctx, c.done)
}

// Stop ends the sweep loop and waits for it to exit. Safe to call repeatedly.
func (c *Cache[V]) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil

	logger.Log.Info("🧹 Stopped cache sweep", zap.String("cache", c.name))
}

func (c *Cache[V]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				logger.Log.Debug("Cache sweep removed expired entries",
					zap.String("cache", c.name),
					zap.Int("removed", removed),
				)
			}
		case <-ctx.Done():
			return
		}
	}
}
