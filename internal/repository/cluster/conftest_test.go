package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/clusterdb/internal/db"
	"github.com/kailas-cloud/clusterdb/internal/domain/access"
	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/field"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	insertOneFn      func(ctx context.Context, coll string, doc map[string]any) error
	findOneFn        func(ctx context.Context, coll string, filter map[string]any) (map[string]any, error)
	findFn           func(ctx context.Context, coll string, filter map[string]any, opts db.FindOptions) ([]map[string]any, error)
	countDocumentsFn func(ctx context.Context, coll string, filter map[string]any) (int64, error)
	updateOneFn      func(ctx context.Context, coll string, filter map[string]any, update any) (int64, error)
	deleteOneFn      func(ctx context.Context, coll string, filter map[string]any) (int64, error)
	createIndexesFn  func(ctx context.Context, coll string, models []db.IndexModel) error
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

func (m *mockStore) UpdateOne(ctx context.Context, coll string, filter map[string]any, update any) (int64, error) {
	if m.updateOneFn != nil {
		return m.updateOneFn(ctx, coll, filter, update)
	}
	return 1, nil
}

func (m *mockStore) DeleteOne(ctx context.Context, coll string, filter map[string]any) (int64, error) {
	if m.deleteOneFn != nil {
		return m.deleteOneFn(ctx, coll, filter)
	}
	return 1, nil
}

func (m *mockStore) CreateIndexes(ctx context.Context, coll string, models []db.IndexModel) error {
	if m.createIndexesFn != nil {
		return m.createIndexesFn(ctx, coll, models)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, ""), ms
}

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func testCluster(t *testing.T) domcluster.Cluster {
	t.Helper()
	desc, err := schema.Compile(&schema.Definition{
		Fields: []field.Definition{
			{Name: "name", Type: "String", Required: true},
			{Name: "age", Type: "Number"},
		},
		Strict: true,
	})
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	idx, err := index.NewList([]index.Definition{{Field: "name", Unique: true}})
	if err != nil {
		t.Fatalf("index list: %v", err)
	}
	c, err := domcluster.New(domcluster.Params{
		OwnerID:     "u1",
		Name:        "Pets",
		Schema:      desc,
		Indexes:     idx,
		WriteAccess: access.Public,
	}, testNow)
	if err != nil {
		t.Fatalf("new cluster: %v", err)
	}
	return c
}
