package document

import (
	"context"

	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/domain/event"
)

// ClusterStore reads cluster records and maintains their document counter.
type ClusterStore interface {
	Get(ctx context.Context, id string) (domcluster.Cluster, error)
	AdjustDocumentCount(ctx context.Context, id string, delta int64) error
}

// Accessors resolves schema-aware accessors by physical collection.
type Accessors interface {
	Resolve(coll string, desc schema.Descriptor) domdoc.Accessor
}

// Publisher emits best-effort notifications.
type Publisher interface {
	Publish(ctx context.Context, topic string, e event.Event) error
}

// CountCache caches per-cluster document totals. Get hands out the
// invalidation generation a miss must be filled under; Set drops fills whose
// generation has since moved.
type CountCache interface {
	Get(ctx context.Context, clusterID string) (n, gen int64, ok bool)
	Set(ctx context.Context, clusterID string, gen, n int64)
	Invalidate(ctx context.Context, clusterID string) error
}
