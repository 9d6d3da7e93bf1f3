// Package accessor memoizes schema-aware accessors per physical collection.
package accessor

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/metrics"
)

// binder creates an accessor over a physical collection.
type binder interface {
	Bind(coll string, v *schema.Validator) domdoc.Accessor
}

// Cache holds at most one accessor per physical collection name.
// A hit returns the accessor built at first use, even if the cluster
// schema changed since; callers evict on schema change.
type Cache struct {
	binder binder
	items  *xsync.MapOf[string, domdoc.Accessor]
}

// New creates an empty cache.
func New(b binder) *Cache {
	return &Cache{binder: b, items: xsync.NewMapOf[string, domdoc.Accessor]()}
}

// Resolve returns the cached accessor for coll, building it from desc on
// first use. Concurrent first uses build exactly one accessor.
func (c *Cache) Resolve(coll string, desc schema.Descriptor) domdoc.Accessor {
	if acc, ok := c.items.Load(coll); ok {
		metrics.AccessorCacheTotal.WithLabelValues("hit").Inc()
		return acc
	}

	acc, loaded := c.items.LoadOrCompute(coll, func() domdoc.Accessor {
		return c.binder.Bind(coll, schema.NewValidator(desc))
	})
	if loaded {
		metrics.AccessorCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.AccessorCacheTotal.WithLabelValues("miss").Inc()
		metrics.AccessorCacheSize.Set(float64(c.items.Size()))
	}
	return acc
}

// Evict drops the accessor for coll. The next Resolve rebuilds it.
func (c *Cache) Evict(coll string) {
	c.items.Delete(coll)
	metrics.AccessorCacheSize.Set(float64(c.items.Size()))
}

// Len returns the number of cached accessors.
func (c *Cache) Len() int { return c.items.Size() }
