package pool

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/tidwall/btree"

	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/metrics"
)

// DefaultTTL is how long a built pool is served before it is rebuilt.
const DefaultTTL = 24 * time.Hour

// Config holds the pool settings as they appear in the configuration file.
type Config struct {
	TargetSize int           `yaml:"target_size" env:"POOL_TARGET_SIZE"`
	MaxPages   int           `yaml:"max_pages" env:"POOL_MAX_PAGES"`
	TTL        time.Duration `yaml:"ttl" env:"POOL_TTL"`
}

// DefaultConfig returns the production pool settings.
func DefaultConfig() Config {
	return Config{TargetSize: DefaultTargetSize, MaxPages: DefaultMaxPages, TTL: DefaultTTL}
}

// FetchFunc builds a fresh pool. Builder.Build satisfies it.
type FetchFunc func(ctx context.Context) ([]types.PoolActor, error)

// snapshot is immutable once published.
type snapshot struct {
	actors  []types.PoolActor
	index   *btree.BTreeG[types.PoolActor]
	builtAt time.Time
}

// Cache memoizes the pool for a TTL.
//
// Within the TTL, Get serves the current snapshot without calling fetch.
// After expiry the next Get rebuilds synchronously and swaps the snapshot in
// one atomic store. Concurrent callers that observe an expired snapshot may
// each rebuild; the last store wins. A failed rebuild is returned to the
// caller and the expired snapshot is not served.
type Cache struct {
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time

	current atomic.Pointer[snapshot]
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache returns an empty cache. ttl <= 0 selects DefaultTTL.
func NewCache(fetch FetchFunc, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{fetch: fetch, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) fresh() *snapshot {
	s := c.current.Load()
	if s == nil || c.now().Sub(s.builtAt) >= c.ttl {
		return nil
	}
	return s
}

// Get returns the pool, rebuilding it when the cached one has expired.
// The returned slice is owned by the caller.
func (c *Cache) Get(ctx context.Context) ([]types.PoolActor, error) {
	if s := c.fresh(); s != nil {
		return slices.Clone(s.actors), nil
	}

	actors, err := c.fetch(ctx)
	if err != nil {
		metrics.PoolRebuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	index := btree.NewBTreeG[types.PoolActor](actorLess)
	for _, a := range actors {
		index.Set(a)
	}
	s := &snapshot{actors: slices.Clone(actors), index: index, builtAt: c.now()}
	c.current.Store(s)

	metrics.PoolRebuildsTotal.WithLabelValues("ok").Inc()
	metrics.PoolSize.Set(float64(len(actors)))
	return slices.Clone(s.actors), nil
}

// Lookup finds an actor in the fresh snapshot without touching the network.
// It reports false when the actor is absent or no fresh snapshot exists.
func (c *Cache) Lookup(id int64) (types.PoolActor, bool) {
	s := c.fresh()
	if s == nil {
		return types.PoolActor{}, false
	}
	return s.index.Get(types.PoolActor{Actor: types.Actor{ID: id}})
}

// Age is the time since the current snapshot was built, or 0 when there is none.
func (c *Cache) Age() time.Duration {
	s := c.current.Load()
	if s == nil {
		return 0
	}
	return c.now().Sub(s.builtAt)
}

// Invalidate drops the snapshot so that the next Get rebuilds.
func (c *Cache) Invalidate() {
	c.current.Store(nil)
}
