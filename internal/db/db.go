package db

import (
	"context"
	"time"
)

// Store is the Redis facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	StreamStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one value per key, nil where the key is missing.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

// StreamEntry is a single append to a stream.
type StreamEntry struct {
	Stream string
	// MaxLen caps the stream length approximately. Zero means no cap.
	MaxLen int64
	Fields map[string]string
}

// StreamStore appends entries to streams.
type StreamStore interface {
	XAdd(ctx context.Context, e StreamEntry) (string, error)
}

// SortKey orders a find. Keys apply in slice order.
type SortKey struct {
	Field string
	Desc  bool
}

// FindOptions shape a multi-document read.
type FindOptions struct {
	Skip       int64
	Limit      int64
	Sort       []SortKey
	Projection []string
}

// IndexModel describes one secondary index. Keys apply in slice order.
type IndexModel struct {
	Keys   []IndexKey
	Unique bool
	Name   string
}

// IndexKey is one component of a (possibly compound) index.
type IndexKey struct {
	Field string
	Order int
}

// DocumentStore is the document database facade. Documents cross it as
// plain maps; identifiers and timestamps come back as strings and time.Time.
//
//nolint:interfacebloat // repositories each consume a narrow subset
type DocumentStore interface {
	Pinger
	InsertOne(ctx context.Context, coll string, doc map[string]any) error
	FindOne(ctx context.Context, coll string, filter map[string]any) (map[string]any, error)
	Find(ctx context.Context, coll string, filter map[string]any, opts FindOptions) ([]map[string]any, error)
	CountDocuments(ctx context.Context, coll string, filter map[string]any) (int64, error)
	UpdateOne(ctx context.Context, coll string, filter map[string]any, update any) (int64, error)
	FindOneAndUpdate(ctx context.Context, coll string, filter map[string]any, update any) (map[string]any, error)
	DeleteOne(ctx context.Context, coll string, filter map[string]any) (int64, error)
	DeleteMany(ctx context.Context, coll string, filter map[string]any) (int64, error)
	CreateIndexes(ctx context.Context, coll string, models []IndexModel) error
	DropCollection(ctx context.Context, coll string) error
	Close(ctx context.Context) error
}
