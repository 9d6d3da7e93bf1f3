package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kailas-cloud/clusterdb/internal/db"
	"github.com/kailas-cloud/clusterdb/internal/domain"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/domain/query"
)

// store is the consumer interface for physical collections (ISP).
//
//nolint:interfacebloat // an accessor covers the full document lifecycle
type store interface {
	InsertOne(ctx context.Context, coll string, doc map[string]any) error
	FindOne(ctx context.Context, coll string, filter map[string]any) (map[string]any, error)
	Find(ctx context.Context, coll string, filter map[string]any, opts db.FindOptions) ([]map[string]any, error)
	CountDocuments(ctx context.Context, coll string, filter map[string]any) (int64, error)
	FindOneAndUpdate(ctx context.Context, coll string, filter map[string]any, update any) (map[string]any, error)
	DeleteOne(ctx context.Context, coll string, filter map[string]any) (int64, error)
	DeleteMany(ctx context.Context, coll string, filter map[string]any) (int64, error)
	CreateIndexes(ctx context.Context, coll string, models []db.IndexModel) error
	DropCollection(ctx context.Context, coll string) error
}

// Repo binds schema-aware accessors to physical collections.
type Repo struct {
	store store
	now   func() time.Time
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s, now: time.Now}
}

// Bind returns an accessor over coll that validates writes with v.
func (r *Repo) Bind(coll string, v *schema.Validator) domdoc.Accessor {
	return &Accessor{store: r.store, coll: coll, validator: v, now: r.now}
}

// Accessor implements domdoc.Accessor for one physical collection.
type Accessor struct {
	store     store
	coll      string
	validator *schema.Validator
	now       func() time.Time
}

// Compile-time check: Accessor implements domdoc.Accessor.
var _ domdoc.Accessor = (*Accessor)(nil)

// Collection returns the physical collection name.
func (a *Accessor) Collection() string { return a.coll }

// Insert validates body, stamps timestamps and stores a new document.
func (a *Accessor) Insert(ctx context.Context, body map[string]any) (domdoc.Document, error) {
	fields, err := a.validator.ForCreate(body)
	if err != nil {
		return domdoc.Document{}, err
	}
	now := a.stamp()
	oid := primitive.NewObjectID()
	if err := a.store.InsertOne(ctx, a.coll, rowForInsert(oid, fields, now)); err != nil {
		return domdoc.Document{}, fmt.Errorf("insert into %s: %w", a.coll, mapErr(err))
	}
	return domdoc.Reconstruct(oid.Hex(), fields, now, now), nil
}

// Find runs a planned query.
func (a *Accessor) Find(ctx context.Context, plan query.Plan) ([]domdoc.Document, error) {
	sort := make([]db.SortKey, len(plan.Sort))
	for i, s := range plan.Sort {
		sort[i] = db.SortKey{Field: s.Field, Desc: s.Desc}
	}
	rows, err := a.store.Find(ctx, a.coll, plan.Filter, db.FindOptions{
		Skip:       plan.Skip,
		Limit:      int64(plan.Limit),
		Sort:       sort,
		Projection: plan.Projection,
	})
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", a.coll, mapErr(err))
	}

	docs := make([]domdoc.Document, len(rows))
	for i, row := range rows {
		docs[i] = docFromRow(row)
	}
	return docs, nil
}

// Count returns the number of documents matching filter.
func (a *Accessor) Count(ctx context.Context, filter map[string]any) (int64, error) {
	n, err := a.store.CountDocuments(ctx, a.coll, filter)
	if err != nil {
		return 0, fmt.Errorf("count in %s: %w", a.coll, mapErr(err))
	}
	return n, nil
}

// Get returns one document by id.
func (a *Accessor) Get(ctx context.Context, id string) (domdoc.Document, error) {
	oid, err := parseID(id)
	if err != nil {
		return domdoc.Document{}, err
	}
	row, err := a.store.FindOne(ctx, a.coll, map[string]any{domdoc.KeyID: oid})
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get %s from %s: %w", id, a.coll, mapErr(err))
	}
	return docFromRow(row), nil
}

// Update overwrites the provided top-level fields and returns the new state.
func (a *Accessor) Update(ctx context.Context, id string, body map[string]any) (domdoc.Document, error) {
	oid, err := parseID(id)
	if err != nil {
		return domdoc.Document{}, err
	}
	fields, err := a.validator.ForUpdate(body)
	if err != nil {
		return domdoc.Document{}, err
	}
	fields[domdoc.KeyUpdatedAt] = a.stamp()
	return a.apply(ctx, id, oid, map[string]any{"$set": fields})
}

// Patch merges nested objects and unsets null fields.
func (a *Accessor) Patch(ctx context.Context, id string, body map[string]any) (domdoc.Document, error) {
	oid, err := parseID(id)
	if err != nil {
		return domdoc.Document{}, err
	}
	p, err := a.validator.ForPatch(body)
	if err != nil {
		return domdoc.Document{}, err
	}

	set := make(map[string]any, len(p.Set())+1)
	for k, v := range p.Set() {
		set[k] = v
	}
	set[domdoc.KeyUpdatedAt] = a.stamp()
	update := map[string]any{"$set": set}
	if unset := p.Unset(); len(unset) > 0 {
		u := make(map[string]any, len(unset))
		for _, k := range unset {
			u[k] = ""
		}
		update["$unset"] = u
	}
	return a.apply(ctx, id, oid, update)
}

func (a *Accessor) apply(ctx context.Context, id string, oid primitive.ObjectID, update map[string]any) (domdoc.Document, error) {
	row, err := a.store.FindOneAndUpdate(ctx, a.coll, map[string]any{domdoc.KeyID: oid}, update)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("update %s in %s: %w", id, a.coll, mapErr(err))
	}
	return docFromRow(row), nil
}

// Delete removes one document.
func (a *Accessor) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	n, err := a.store.DeleteOne(ctx, a.coll, map[string]any{domdoc.KeyID: oid})
	if err != nil {
		return fmt.Errorf("delete %s from %s: %w", id, a.coll, mapErr(err))
	}
	if n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// DeleteMany removes every match and returns the actual deleted count.
func (a *Accessor) DeleteMany(ctx context.Context, filter map[string]any) (int64, error) {
	n, err := a.store.DeleteMany(ctx, a.coll, filter)
	if err != nil {
		return 0, fmt.Errorf("delete many from %s: %w", a.coll, mapErr(err))
	}
	return n, nil
}

// EnsureIndexes creates one compound index over every spec in order,
// plus a single-field unique index per unique spec.
func (a *Accessor) EnsureIndexes(ctx context.Context, specs []index.Spec) error {
	if err := a.store.CreateIndexes(ctx, a.coll, indexModels(specs)); err != nil {
		return fmt.Errorf("create indexes on %s: %w", a.coll, mapErr(err))
	}
	return nil
}

// Drop removes the physical collection. A missing collection is fine.
func (a *Accessor) Drop(ctx context.Context) error {
	if err := a.store.DropCollection(ctx, a.coll); err != nil {
		return fmt.Errorf("drop %s: %w", a.coll, mapErr(err))
	}
	return nil
}

// stamp truncates to the storage clock resolution so returned and stored
// timestamps agree.
func (a *Accessor) stamp() time.Time {
	return a.now().UTC().Truncate(time.Millisecond)
}

func indexModels(specs []index.Spec) []db.IndexModel {
	if len(specs) == 0 {
		return nil
	}
	if len(specs) == 1 {
		s := specs[0]
		return []db.IndexModel{{
			Keys:   []db.IndexKey{{Field: s.Field(), Order: int(s.Order())}},
			Unique: s.Unique(),
		}}
	}

	keys := make([]db.IndexKey, len(specs))
	for i, s := range specs {
		keys[i] = db.IndexKey{Field: s.Field(), Order: int(s.Order())}
	}
	models := []db.IndexModel{{Keys: keys}}
	for _, s := range specs {
		if s.Unique() {
			models = append(models, db.IndexModel{
				Keys:   []db.IndexKey{{Field: s.Field(), Order: 1}},
				Unique: true,
			})
		}
	}
	return models
}

func parseID(id string) (primitive.ObjectID, error) {
	if err := domdoc.ValidateID(id); err != nil {
		return primitive.ObjectID{}, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.ObjectID{}, fmt.Errorf("%q: %w", id, domain.ErrInvalidReference)
	}
	return oid, nil
}

// mapErr translates store sentinels into the domain taxonomy.
func mapErr(err error) error {
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return domain.ErrDocumentNotFound
	case errors.Is(err, db.ErrKeyExists):
		return fmt.Errorf("%w: duplicate value for a unique index: %w", domain.ErrValidation, err)
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	default:
		return err
	}
}
