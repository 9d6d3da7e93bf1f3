package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kailas-cloud/clusterdb/internal/db"
)

const codeNamespaceNotFound = 26

// InsertOne stores doc as-is. The caller supplies _id.
func (s *Store) InsertOne(ctx context.Context, coll string, doc map[string]any) error {
	if _, err := s.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		return wrap(db.OpInsert, err)
	}
	return nil
}

// FindOne returns the first match or db.ErrKeyNotFound.
func (s *Store) FindOne(ctx context.Context, coll string, filter map[string]any) (map[string]any, error) {
	var raw bson.M
	if err := s.db.Collection(coll).FindOne(ctx, orEmpty(filter)).Decode(&raw); err != nil {
		return nil, wrap(db.OpFind, err)
	}
	return Normalize(raw), nil
}

// Find returns every match shaped by opts.
func (s *Store) Find(
	ctx context.Context, coll string, filter map[string]any, opts db.FindOptions,
) ([]map[string]any, error) {
	fo := options.Find()
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	if len(opts.Sort) > 0 {
		fo.SetSort(sortDoc(opts.Sort))
	}
	if len(opts.Projection) > 0 {
		fo.SetProjection(projectionDoc(opts.Projection))
	}

	cur, err := s.db.Collection(coll).Find(ctx, orEmpty(filter), fo)
	if err != nil {
		return nil, wrap(db.OpFind, err)
	}
	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return nil, wrap(db.OpFind, err)
	}

	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = Normalize(r)
	}
	return out, nil
}

// CountDocuments counts matches exactly.
func (s *Store) CountDocuments(ctx context.Context, coll string, filter map[string]any) (int64, error) {
	n, err := s.db.Collection(coll).CountDocuments(ctx, orEmpty(filter))
	if err != nil {
		return 0, wrap(db.OpCount, err)
	}
	return n, nil
}

// UpdateOne applies update (an operator document or a pipeline) and
// returns the number of matched documents.
func (s *Store) UpdateOne(ctx context.Context, coll string, filter map[string]any, update any) (int64, error) {
	res, err := s.db.Collection(coll).UpdateOne(ctx, orEmpty(filter), update)
	if err != nil {
		return 0, wrap(db.OpUpdate, err)
	}
	return res.MatchedCount, nil
}

// FindOneAndUpdate applies update and returns the post-image.
func (s *Store) FindOneAndUpdate(
	ctx context.Context, coll string, filter map[string]any, update any,
) (map[string]any, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	if err := s.db.Collection(coll).FindOneAndUpdate(ctx, orEmpty(filter), update, opts).Decode(&raw); err != nil {
		return nil, wrap(db.OpFindModify, err)
	}
	return Normalize(raw), nil
}

// DeleteOne removes the first match and returns the deleted count.
func (s *Store) DeleteOne(ctx context.Context, coll string, filter map[string]any) (int64, error) {
	res, err := s.db.Collection(coll).DeleteOne(ctx, orEmpty(filter))
	if err != nil {
		return 0, wrap(db.OpDelete, err)
	}
	return res.DeletedCount, nil
}

// DeleteMany removes every match and returns the deleted count.
func (s *Store) DeleteMany(ctx context.Context, coll string, filter map[string]any) (int64, error) {
	res, err := s.db.Collection(coll).DeleteMany(ctx, orEmpty(filter))
	if err != nil {
		return 0, wrap(db.OpDelete, err)
	}
	return res.DeletedCount, nil
}

// CreateIndexes creates every model. Existing identical indexes are a no-op on the server.
func (s *Store) CreateIndexes(ctx context.Context, coll string, models []db.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	ims := make([]mongo.IndexModel, 0, len(models))
	for _, m := range models {
		if len(m.Keys) == 0 {
			return fmt.Errorf("index %q has no keys", m.Name)
		}
		keys := make(bson.D, len(m.Keys))
		for i, k := range m.Keys {
			keys[i] = bson.E{Key: k.Field, Value: k.Order}
		}
		io := options.Index()
		if m.Unique {
			io.SetUnique(true)
		}
		if m.Name != "" {
			io.SetName(m.Name)
		}
		ims = append(ims, mongo.IndexModel{Keys: keys, Options: io})
	}
	if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, ims); err != nil {
		return wrap(db.OpCreateIndex, err)
	}
	return nil
}

// DropCollection drops coll. A missing collection is not an error.
func (s *Store) DropCollection(ctx context.Context, coll string) error {
	err := s.db.Collection(coll).Drop(ctx)
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceNotFound {
		return nil
	}
	if err != nil {
		return wrap(db.OpDrop, err)
	}
	return nil
}

func orEmpty(filter map[string]any) any {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

func sortDoc(keys []db.SortKey) bson.D {
	d := make(bson.D, len(keys))
	for i, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		d[i] = bson.E{Key: k.Field, Value: dir}
	}
	return d
}

func projectionDoc(fields []string) bson.D {
	d := make(bson.D, len(fields))
	for i, f := range fields {
		d[i] = bson.E{Key: f, Value: 1}
	}
	return d
}
