package document

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/clusterdb/internal/db"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/field"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	insertOneFn        func(ctx context.Context, coll string, doc map[string]any) error
	findOneFn          func(ctx context.Context, coll string, filter map[string]any) (map[string]any, error)
	findFn             func(ctx context.Context, coll string, filter map[string]any, opts db.FindOptions) ([]map[string]any, error)
	countDocumentsFn   func(ctx context.Context, coll string, filter map[string]any) (int64, error)
	findOneAndUpdateFn func(ctx context.Context, coll string, filter map[string]any, update any) (map[string]any, error)
	deleteOneFn        func(ctx context.Context, coll string, filter map[string]any) (int64, error)
	deleteManyFn       func(ctx context.Context, coll string, filter map[string]any) (int64, error)
	createIndexesFn    func(ctx context.Context, coll string, models []db.IndexModel) error
	dropCollectionFn   func(ctx context.Context, coll string) error
}

func (m *mockStore) InsertOne(ctx context.Context, coll string, doc map[string]any) error {
	if m.insertOneFn != nil {
		return m.insertOneFn(ctx, coll, doc)
	}
	return nil
}

func (m *mockStore) FindOne(ctx context.Context, coll string, filter map[string]any) (map[string]any, error) {
	if m.findOneFn != nil {
		return m.findOneFn(ctx, coll, filter)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Find(
	ctx context.Context, coll string, filter map[string]any, opts db.FindOptions,
) ([]map[string]any, error) {
	if m.findFn != nil {
		return m.findFn(ctx, coll, filter, opts)
	}
	return nil, nil
}

func (m *mockStore) CountDocuments(ctx context.Context, coll string, filter map[string]any) (int64, error) {
	if m.countDocumentsFn != nil {
		return m.countDocumentsFn(ctx, coll, filter)
	}
	return 0, nil
}

func (m *mockStore) FindOneAndUpdate(
	ctx context.Context, coll string, filter map[string]any, update any,
) (map[string]any, error) {
	if m.findOneAndUpdateFn != nil {
		return m.findOneAndUpdateFn(ctx, coll, filter, update)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) DeleteOne(ctx context.Context, coll string, filter map[string]any) (int64, error) {
	if m.deleteOneFn != nil {
		return m.deleteOneFn(ctx, coll, filter)
	}
	return 0, nil
}

func (m *mockStore) DeleteMany(ctx context.Context, coll string, filter map[string]any) (int64, error) {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, coll, filter)
	}
	return 0, nil
}

func (m *mockStore) CreateIndexes(ctx context.Context, coll string, models []db.IndexModel) error {
	if m.createIndexesFn != nil {
		return m.createIndexesFn(ctx, coll, models)
	}
	return nil
}

func (m *mockStore) DropCollection(ctx context.Context, coll string) error {
	if m.dropCollectionFn != nil {
		return m.dropCollectionFn(ctx, coll)
	}
	return nil
}

const testColl = "cluster_u1_pets"

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)

// newTestAccessor binds an accessor with a strict pets schema and a frozen clock.
func newTestAccessor(t *testing.T) (*Accessor, *mockStore) {
	t.Helper()
	desc, err := schema.Compile(&schema.Definition{
		Fields: []field.Definition{
			{Name: "name", Type: "String", Required: true},
			{Name: "age", Type: "Number"},
			{Name: "meta", Type: "Object"},
		},
		Strict: true,
	})
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	ms := &mockStore{}
	repo := New(ms)
	repo.now = func() time.Time { return testNow }
	acc, ok := repo.Bind(testColl, schema.NewValidator(desc)).(*Accessor)
	if !ok {
		t.Fatal("Bind must return *Accessor")
	}
	return acc, ms
}
