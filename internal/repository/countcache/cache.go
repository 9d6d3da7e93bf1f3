// Package countcache caches per-cluster document counts in a key-value store.
package countcache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultTTL bounds how stale a cached count can get.
const DefaultTTL = 5 * time.Minute

// generationTTL keeps an idle generation counter around far longer than
// any count fill takes.
const generationTTL = 24 * time.Hour

// store is the consumer interface for the count cache (ISP).
type store interface {
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

// Cache keeps cluster:{id}:count entries. Every entry is stamped with the
// cluster's invalidation generation at the time the count was read; an
// entry from an older generation is a miss, so a fill racing a write can
// never be served.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a count cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Key returns the cache key of a cluster.
func Key(clusterID string) string {
	return "cluster:" + clusterID + ":count"
}

// GenerationKey returns the key of a cluster's invalidation counter.
func GenerationKey(clusterID string) string {
	return "cluster:" + clusterID + ":count:gen"
}

// Get returns a cached count and the current generation. On a miss the
// generation is what a later Set must carry. Read failures are logged and
// reported as a miss.
func (c *Cache) Get(ctx context.Context, clusterID string) (n, gen int64, ok bool) {
	key, genKey := Key(clusterID), GenerationKey(clusterID)
	vals, err := c.store.MGet(ctx, key, genKey)
	if err != nil || len(vals) != 2 {
		c.logger.Warn("Failed to read cached count", zap.String("key", key), zap.Error(err))
		c.inc("miss")
		return 0, 0, false
	}

	if vals[1] != nil {
		if gen, err = strconv.ParseInt(string(vals[1]), 10, 64); err != nil {
			c.logger.Warn("Failed to parse count generation", zap.String("key", genKey), zap.Error(err))
			c.inc("miss")
			return 0, 0, false
		}
	}
	if vals[0] == nil {
		c.inc("miss")
		return 0, gen, false
	}

	entryGen, n, err := parseEntry(vals[0])
	if err != nil {
		c.logger.Warn("Failed to parse cached count", zap.String("key", key), zap.Error(err))
		c.inc("miss")
		return 0, gen, false
	}
	if entryGen != gen {
		c.inc("miss")
		return 0, gen, false
	}
	c.inc("hit")
	return n, gen, true
}

// Set stores a count read under generation gen. Failures are logged only.
func (c *Cache) Set(ctx context.Context, clusterID string, gen, n int64) {
	key := Key(clusterID)
	value := strconv.FormatInt(gen, 10) + ":" + strconv.FormatInt(n, 10)
	if err := c.store.SetWithTTL(ctx, key, []byte(value), c.ttl); err != nil {
		c.logger.Warn("Failed to cache count", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate advances the generation of a cluster, which retires its cached
// count and any fill still in flight, then drops the entry.
func (c *Cache) Invalidate(ctx context.Context, clusterID string) error {
	if _, err := c.store.Incr(ctx, GenerationKey(clusterID), generationTTL); err != nil {
		return fmt.Errorf("invalidate count of %s: %w", clusterID, err)
	}
	if err := c.store.Del(ctx, Key(clusterID)); err != nil {
		c.logger.Warn("Failed to drop cached count", zap.String("key", Key(clusterID)), zap.Error(err))
	}
	return nil
}

func parseEntry(raw []byte) (gen, n int64, err error) {
	genPart, nPart, found := strings.Cut(string(raw), ":")
	if !found {
		return 0, 0, fmt.Errorf("malformed count entry %q", raw)
	}
	if gen, err = strconv.ParseInt(genPart, 10, 64); err != nil {
		return 0, 0, err
	}
	if n, err = strconv.ParseInt(nPart, 10, 64); err != nil {
		return 0, 0, err
	}
	return gen, n, nil
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// Noop never caches. It stands in when no key-value store is configured.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) (n, gen int64, ok bool) { return 0, 0, false }

// Set does nothing.
func (Noop) Set(context.Context, string, int64, int64) {}

// Invalidate does nothing.
func (Noop) Invalidate(context.Context, string) error { return nil }
