package cluster

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kailas-cloud/clusterdb/internal/db"
	"github.com/kailas-cloud/clusterdb/internal/domain"
	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
)

// DefaultCollection holds the authoritative cluster records.
const DefaultCollection = "clusters"

// store is the consumer interface for cluster records (ISP).
type store interface {
	InsertOne(ctx context.Context, coll string, doc map[string]any) error
	FindOne(ctx context.Context, coll string, filter map[string]any) (map[string]any, error)
	Find(ctx context.Context, coll string, filter map[string]any, opts db.FindOptions) ([]map[string]any, error)
	CountDocuments(ctx context.Context, coll string, filter map[string]any) (int64, error)
	UpdateOne(ctx context.Context, coll string, filter map[string]any, update any) (int64, error)
	DeleteOne(ctx context.Context, coll string, filter map[string]any) (int64, error)
	CreateIndexes(ctx context.Context, coll string, models []db.IndexModel) error
}

// Repo implements usecase/cluster.Repository on a document store.
type Repo struct {
	store store
	coll  string
}

// New creates a cluster repository over coll (DefaultCollection when empty).
func New(s store, coll string) *Repo {
	if coll == "" {
		coll = DefaultCollection
	}
	return &Repo{store: s, coll: coll}
}

// EnsureIndexes creates the registry indexes: one slug per owner, one
// cluster per physical collection, and the owner listing order.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	models := []db.IndexModel{
		{Name: "userId_slug", Unique: true, Keys: []db.IndexKey{{Field: fieldUserID, Order: 1}, {Field: fieldSlug, Order: 1}}},
		{Name: "collectionName", Unique: true, Keys: []db.IndexKey{{Field: fieldCollectionName, Order: 1}}},
		{Name: "userId_createdAt", Keys: []db.IndexKey{{Field: fieldUserID, Order: 1}, {Field: fieldCreatedAt, Order: -1}}},
	}
	if err := r.store.CreateIndexes(ctx, r.coll, models); err != nil {
		return fmt.Errorf("create cluster indexes: %w", mapErr(err))
	}
	return nil
}

// Create stores a new cluster and returns it with its generated id.
// A slug or collection collision fails with domain.ErrDuplicateName.
func (r *Repo) Create(ctx context.Context, c domcluster.Cluster) (domcluster.Cluster, error) {
	doc, err := clusterToDoc(c)
	if err != nil {
		return domcluster.Cluster{}, err
	}
	oid := primitive.NewObjectID()
	doc[fieldID] = oid

	if err := r.store.InsertOne(ctx, r.coll, doc); err != nil {
		return domcluster.Cluster{}, fmt.Errorf("insert cluster %s: %w", c.Slug(), mapErr(err))
	}
	return c.WithID(oid.Hex()), nil
}

// SlugTaken reports whether owner already has a cluster with slug.
func (r *Repo) SlugTaken(ctx context.Context, ownerID, slug string) (bool, error) {
	n, err := r.store.CountDocuments(ctx, r.coll, map[string]any{fieldUserID: ownerID, fieldSlug: slug})
	if err != nil {
		return false, fmt.Errorf("count slug %s: %w", slug, mapErr(err))
	}
	return n > 0, nil
}

// Get returns an active cluster by id. Malformed ids are not found.
func (r *Repo) Get(ctx context.Context, id string) (domcluster.Cluster, error) {
	oid, ok := objectID(id)
	if !ok {
		return domcluster.Cluster{}, domain.ErrNotFound
	}
	m, err := r.store.FindOne(ctx, r.coll, map[string]any{fieldID: oid, fieldIsActive: true})
	if err != nil {
		return domcluster.Cluster{}, fmt.Errorf("get cluster %s: %w", id, mapErr(err))
	}
	return clusterFromDoc(m)
}

// ListByOwner returns the owner's active clusters, newest first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]domcluster.Cluster, error) {
	rows, err := r.store.Find(ctx, r.coll,
		map[string]any{fieldUserID: ownerID, fieldIsActive: true},
		db.FindOptions{Sort: []db.SortKey{{Field: fieldCreatedAt, Desc: true}}},
	)
	if err != nil {
		return nil, fmt.Errorf("list clusters of %s: %w", ownerID, mapErr(err))
	}

	out := make([]domcluster.Cluster, 0, len(rows))
	for _, m := range rows {
		c, err := clusterFromDoc(m)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Update persists the given fields of c along with its updatedAt.
func (r *Repo) Update(ctx context.Context, c domcluster.Cluster, fields []domcluster.Field) error {
	oid, ok := objectID(c.ID())
	if !ok {
		return domain.ErrNotFound
	}
	set, err := updateFields(c, fields)
	if err != nil {
		return err
	}
	return r.set(ctx, c.ID(), oid, set)
}

// SetActive flips the visibility flag of a cluster record.
func (r *Repo) SetActive(ctx context.Context, id string, active bool) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrNotFound
	}
	return r.set(ctx, id, oid, map[string]any{fieldIsActive: active})
}

func (r *Repo) set(ctx context.Context, id string, oid primitive.ObjectID, set map[string]any) error {
	matched, err := r.store.UpdateOne(ctx, r.coll, map[string]any{fieldID: oid}, map[string]any{"$set": set})
	if err != nil {
		return fmt.Errorf("update cluster %s: %w", id, mapErr(err))
	}
	if matched == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the cluster record.
func (r *Repo) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrNotFound
	}
	n, err := r.store.DeleteOne(ctx, r.coll, map[string]any{fieldID: oid})
	if err != nil {
		return fmt.Errorf("delete cluster %s: %w", id, mapErr(err))
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustDocumentCount adds delta to documentCount in a single server-side
// update, never letting it go below zero.
func (r *Repo) AdjustDocumentCount(ctx context.Context, id string, delta int64) error {
	if delta == 0 {
		return nil
	}
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrNotFound
	}
	pipeline := []any{
		map[string]any{"$set": map[string]any{
			fieldDocumentCount: map[string]any{
				"$max": []any{0, map[string]any{"$add": []any{
					map[string]any{"$ifNull": []any{"$" + fieldDocumentCount, 0}},
					delta,
				}}},
			},
		}},
	}
	if _, err := r.store.UpdateOne(ctx, r.coll, map[string]any{fieldID: oid}, pipeline); err != nil {
		return fmt.Errorf("adjust document count of %s: %w", id, mapErr(err))
	}
	return nil
}

// mapErr translates store sentinels into the domain taxonomy.
func mapErr(err error) error {
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return domain.ErrNotFound
	case errors.Is(err, db.ErrKeyExists):
		return fmt.Errorf("%w: %w", domain.ErrDuplicateName, err)
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	default:
		return err
	}
}
