package document

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"time"

	"github.com/kailas-cloud/clusterdb/internal/domain"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/query"
)

// Engine-managed keys injected into every stored document.
const (
	KeyID        = "_id"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

var idRegex = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ValidateID checks that id is a well-formed storage identifier.
func ValidateID(id string) error {
	if !idRegex.MatchString(id) {
		return fmt.Errorf("%q: %w", id, domain.ErrInvalidReference)
	}
	return nil
}

// Document is a stored dynamic document (immutable value object).
type Document struct {
	id        string
	fields    map[string]any
	createdAt time.Time
	updatedAt time.Time
}

// Reconstruct creates a Document from storage.
func Reconstruct(id string, fields map[string]any, createdAt, updatedAt time.Time) Document {
	return Document{id: id, fields: fields, createdAt: createdAt, updatedAt: updatedAt}
}

// ID returns the storage-generated identifier.
func (d Document) ID() string { return d.id }

// Fields returns the user payload without engine-managed keys.
func (d Document) Fields() map[string]any { return maps.Clone(d.fields) }

// CreatedAt returns the insertion time.
func (d Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last modification time.
func (d Document) UpdatedAt() time.Time { return d.updatedAt }

// Map returns the payload with engine-managed keys merged in.
func (d Document) Map() map[string]any {
	out := make(map[string]any, len(d.fields)+3)
	maps.Copy(out, d.fields)
	out[KeyID] = d.id
	if !d.createdAt.IsZero() {
		out[KeyCreatedAt] = d.createdAt
	}
	if !d.updatedAt.IsZero() {
		out[KeyUpdatedAt] = d.updatedAt
	}
	return out
}

// MarshalJSON renders the flat document form.
func (d Document) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(d.Map())
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", d.id, err)
	}
	return b, nil
}

// Accessor is a schema-aware handle over one physical collection.
// Writes are validated against the schema the accessor was built with.
type Accessor interface {
	Collection() string
	Insert(ctx context.Context, body map[string]any) (Document, error)
	Find(ctx context.Context, plan query.Plan) ([]Document, error)
	Count(ctx context.Context, filter map[string]any) (int64, error)
	Get(ctx context.Context, id string) (Document, error)
	Update(ctx context.Context, id string, body map[string]any) (Document, error)
	Patch(ctx context.Context, id string, body map[string]any) (Document, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, filter map[string]any) (int64, error)
	EnsureIndexes(ctx context.Context, specs []index.Spec) error
	Drop(ctx context.Context) error
}
