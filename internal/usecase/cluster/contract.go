package cluster

import (
	"context"

	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/domain/event"
)

// Repository defines the storage contract for cluster records.
type Repository interface {
	Create(ctx context.Context, c domcluster.Cluster) (domcluster.Cluster, error)
	SlugTaken(ctx context.Context, ownerID, slug string) (bool, error)
	Get(ctx context.Context, id string) (domcluster.Cluster, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domcluster.Cluster, error)
	Update(ctx context.Context, c domcluster.Cluster, fields []domcluster.Field) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// Accessors resolves and evicts cached collection accessors.
type Accessors interface {
	Resolve(coll string, desc schema.Descriptor) domdoc.Accessor
	Evict(coll string)
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, topic string, e event.Event) error
}

// CountInvalidator drops cached document counts.
type CountInvalidator interface {
	Invalidate(ctx context.Context, clusterID string) error
}
