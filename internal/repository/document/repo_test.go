package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kailas-cloud/clusterdb/internal/db"
	"github.com/kailas-cloud/clusterdb/internal/domain"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/query"
)

var stamped = testNow.Truncate(time.Millisecond)

// --- Insert ---

func TestInsert_StampsAndCasts(t *testing.T) {
	acc, ms := newTestAccessor(t)

	var row map[string]any
	ms.insertOneFn = func(_ context.Context, coll string, doc map[string]any) error {
		assert.Equal(t, testColl, coll)
		row = doc
		return nil
	}

	doc, err := acc.Insert(context.Background(), map[string]any{"name": "Rex", "age": "3", "_id": "forged"})
	require.NoError(t, err)

	oid, ok := row["_id"].(primitive.ObjectID)
	require.True(t, ok, "_id must be generated")
	assert.Equal(t, oid.Hex(), doc.ID())
	assert.Equal(t, float64(3), row["age"])
	assert.Equal(t, stamped, row["createdAt"])
	assert.Equal(t, stamped, doc.UpdatedAt())
	assert.Equal(t, map[string]any{"name": "Rex", "age": float64(3)}, doc.Fields())
}

func TestInsert_ValidationBlocksWrite(t *testing.T) {
	acc, ms := newTestAccessor(t)
	ms.insertOneFn = func(_ context.Context, _ string, _ map[string]any) error {
		t.Fatal("store must not be called")
		return nil
	}

	_, err := acc.Insert(context.Background(), map[string]any{"age": 3, "color": "brown"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "color")
}

func TestInsert_DuplicateUniqueValue(t *testing.T) {
	acc, ms := newTestAccessor(t)
	ms.insertOneFn = func(_ context.Context, _ string, _ map[string]any) error {
		return &db.Error{Op: db.OpInsert, Err: db.ErrKeyExists}
	}

	_, err := acc.Insert(context.Background(), map[string]any{"name": "Rex"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// --- Find / Count ---

func TestFind_PassesPlan(t *testing.T) {
	acc, ms := newTestAccessor(t)
	plan := query.NewBuilder(20, 100).Build(query.Params{Sort: "name,-age", Select: "name", Page: "2", Limit: "5"})

	ms.findFn = func(_ context.Context, _ string, _ map[string]any, opts db.FindOptions) ([]map[string]any, error) {
		assert.Equal(t, int64(5), opts.Skip)
		assert.Equal(t, int64(5), opts.Limit)
		assert.Equal(t, []db.SortKey{{Field: "name"}, {Field: "age", Desc: true}}, opts.Sort)
		assert.Equal(t, []string{"name"}, opts.Projection)
		return []map[string]any{{"_id": "abc", "name": "Rex", "createdAt": testNow, "__v": int32(0)}}, nil
	}

	docs, err := acc.Find(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "abc", docs[0].ID())
	assert.Equal(t, map[string]any{"name": "Rex"}, docs[0].Fields())
	assert.Equal(t, testNow, docs[0].CreatedAt())
}

func TestCount_Unavailable(t *testing.T) {
	acc, ms := newTestAccessor(t)
	ms.countDocumentsFn = func(_ context.Context, _ string, _ map[string]any) (int64, error) {
		return 0, &db.Error{Op: db.OpCount, Err: db.ErrUnavailable}
	}

	_, err := acc.Count(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

// --- Get ---

func TestGet_InvalidReference(t *testing.T) {
	acc, _ := newTestAccessor(t)
	_, err := acc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestGet_NotFound(t *testing.T) {
	acc, _ := newTestAccessor(t)
	_, err := acc.Get(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestGet_Found(t *testing.T) {
	acc, ms := newTestAccessor(t)
	id := primitive.NewObjectID()
	ms.findOneFn = func(_ context.Context, _ string, filter map[string]any) (map[string]any, error) {
		assert.Equal(t, id, filter["_id"])
		return map[string]any{"_id": id.Hex(), "name": "Rex"}, nil
	}

	doc, err := acc.Get(context.Background(), id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), doc.ID())
}

// --- Update / Patch ---

func TestUpdate_SetsProvidedFieldsAndTimestamp(t *testing.T) {
	acc, ms := newTestAccessor(t)
	id := primitive.NewObjectID()

	ms.findOneAndUpdateFn = func(_ context.Context, _ string, _ map[string]any, update any) (map[string]any, error) {
		set := update.(map[string]any)["$set"].(map[string]any)
		assert.Equal(t, float64(4), set["age"])
		assert.Equal(t, stamped, set["updatedAt"])
		assert.NotContains(t, set, "name")
		return map[string]any{"_id": id.Hex(), "name": "Rex", "age": float64(4)}, nil
	}

	doc, err := acc.Update(context.Background(), id.Hex(), map[string]any{"age": 4})
	require.NoError(t, err)
	assert.Equal(t, float64(4), doc.Fields()["age"])
}

func TestUpdate_MissingDocument(t *testing.T) {
	acc, _ := newTestAccessor(t)
	_, err := acc.Update(context.Background(), primitive.NewObjectID().Hex(), map[string]any{"age": 4})
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestPatch_MergesAndUnsets(t *testing.T) {
	acc, ms := newTestAccessor(t)
	id := primitive.NewObjectID()

	ms.findOneAndUpdateFn = func(_ context.Context, _ string, _ map[string]any, update any) (map[string]any, error) {
		u := update.(map[string]any)
		set := u["$set"].(map[string]any)
		assert.Equal(t, "vet", set["meta.owner"])
		assert.Equal(t, map[string]any{"age": ""}, u["$unset"])
		return map[string]any{"_id": id.Hex(), "name": "Rex"}, nil
	}

	_, err := acc.Patch(context.Background(), id.Hex(), map[string]any{
		"meta": map[string]any{"owner": "vet"},
		"age":  nil,
	})
	require.NoError(t, err)
}

func TestPatch_RequiredCannotBeRemoved(t *testing.T) {
	acc, _ := newTestAccessor(t)
	_, err := acc.Patch(context.Background(), primitive.NewObjectID().Hex(), map[string]any{"name": nil})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// --- Delete ---

func TestDelete_Twice(t *testing.T) {
	acc, ms := newTestAccessor(t)
	remaining := int64(1)
	ms.deleteOneFn = func(_ context.Context, _ string, _ map[string]any) (int64, error) {
		n := remaining
		remaining = 0
		return n, nil
	}

	id := primitive.NewObjectID().Hex()
	require.NoError(t, acc.Delete(context.Background(), id))
	assert.ErrorIs(t, acc.Delete(context.Background(), id), domain.ErrDocumentNotFound)
}

func TestDeleteMany_ReturnsActualCount(t *testing.T) {
	acc, ms := newTestAccessor(t)
	ms.deleteManyFn = func(_ context.Context, _ string, filter map[string]any) (int64, error) {
		assert.Equal(t, map[string]any{"age": float64(3)}, filter)
		return 7, nil
	}

	n, err := acc.DeleteMany(context.Background(), map[string]any{"age": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

// --- Indexes / Drop ---

func TestIndexModels(t *testing.T) {
	specs, err := index.NewList([]index.Definition{
		{Field: "name", Unique: true},
		{Field: "age", Order: -1},
	})
	require.NoError(t, err)

	models := indexModels(specs)
	require.Len(t, models, 2)
	assert.Equal(t, []db.IndexKey{{Field: "name", Order: 1}, {Field: "age", Order: -1}}, models[0].Keys)
	assert.False(t, models[0].Unique)
	assert.Equal(t, []db.IndexKey{{Field: "name", Order: 1}}, models[1].Keys)
	assert.True(t, models[1].Unique)
}

func TestIndexModels_SingleUnique(t *testing.T) {
	specs, err := index.NewList([]index.Definition{{Field: "email", Unique: true}})
	require.NoError(t, err)

	models := indexModels(specs)
	require.Len(t, models, 1)
	assert.True(t, models[0].Unique)
	assert.Nil(t, indexModels(nil))
}

func TestDrop_Error(t *testing.T) {
	acc, ms := newTestAccessor(t)
	ms.dropCollectionFn = func(_ context.Context, _ string) error { return errors.New("not primary") }
	assert.Error(t, acc.Drop(context.Background()))
}
