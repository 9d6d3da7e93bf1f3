package cluster

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kailas-cloud/clusterdb/internal/domain/access"
	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
)

// Persisted field names of a cluster record.
const (
	fieldID             = "_id"
	fieldUserID         = "userId"
	fieldName           = "name"
	fieldSlug           = "slug"
	fieldDescription    = "description"
	fieldCollectionName = "collectionName"
	fieldSchema         = "schema"
	fieldIndexes        = "indexes"
	fieldAPIEnabled     = "apiEnabled"
	fieldReadAccess     = "readAccess"
	fieldWriteAccess    = "writeAccess"
	fieldDocumentCount  = "documentCount"
	fieldIsActive       = "isActive"
	fieldCreatedAt      = "createdAt"
	fieldUpdatedAt      = "updatedAt"
)

// clusterToDoc converts a domain Cluster into its stored form. The _id is
// set by the caller.
func clusterToDoc(c domcluster.Cluster) (map[string]any, error) {
	sch, err := toPlain(c.Schema().Definition())
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	idx, err := toPlain(indexDefinitions(c.Indexes()))
	if err != nil {
		return nil, fmt.Errorf("encode indexes: %w", err)
	}
	return map[string]any{
		fieldUserID:         c.OwnerID(),
		fieldName:           c.Name(),
		fieldSlug:           c.Slug(),
		fieldDescription:    c.Description(),
		fieldCollectionName: c.CollectionName(),
		fieldSchema:         sch,
		fieldIndexes:        idx,
		fieldAPIEnabled:     c.APIEnabled(),
		fieldReadAccess:     string(c.ReadAccess()),
		fieldWriteAccess:    string(c.WriteAccess()),
		fieldDocumentCount:  c.DocumentCount(),
		fieldIsActive:       c.IsActive(),
		fieldCreatedAt:      c.CreatedAt(),
		fieldUpdatedAt:      c.UpdatedAt(),
	}, nil
}

// updateFields is the $set payload for an update: the touched attributes
// plus updatedAt. Untouched attributes keep whatever is stored.
func updateFields(c domcluster.Cluster, fields []domcluster.Field) (map[string]any, error) {
	set := map[string]any{fieldUpdatedAt: c.UpdatedAt()}
	for _, f := range fields {
		switch f {
		case domcluster.FieldName:
			set[fieldName] = c.Name()
		case domcluster.FieldDescription:
			set[fieldDescription] = c.Description()
		case domcluster.FieldSchema:
			sch, err := toPlain(c.Schema().Definition())
			if err != nil {
				return nil, fmt.Errorf("encode schema: %w", err)
			}
			set[fieldSchema] = sch
		case domcluster.FieldIndexes:
			idx, err := toPlain(indexDefinitions(c.Indexes()))
			if err != nil {
				return nil, fmt.Errorf("encode indexes: %w", err)
			}
			set[fieldIndexes] = idx
		case domcluster.FieldAPIEnabled:
			set[fieldAPIEnabled] = c.APIEnabled()
		case domcluster.FieldReadAccess:
			set[fieldReadAccess] = string(c.ReadAccess())
		case domcluster.FieldWriteAccess:
			set[fieldWriteAccess] = string(c.WriteAccess())
		default:
			return nil, fmt.Errorf("field %q is not updatable", f)
		}
	}
	return set, nil
}

// clusterFromDoc hydrates a Cluster from a normalized stored document.
func clusterFromDoc(m map[string]any) (domcluster.Cluster, error) {
	var def schema.Definition
	if raw, ok := m[fieldSchema]; ok && raw != nil {
		if err := fromPlain(raw, &def); err != nil {
			return domcluster.Cluster{}, fmt.Errorf("decode schema: %w", err)
		}
	}
	var idx []index.Definition
	if raw, ok := m[fieldIndexes]; ok && raw != nil {
		if err := fromPlain(raw, &idx); err != nil {
			return domcluster.Cluster{}, fmt.Errorf("decode indexes: %w", err)
		}
	}
	specs := make([]index.Spec, len(idx))
	for i, d := range idx {
		specs[i] = index.Reconstruct(d)
	}

	return domcluster.Reconstruct(domcluster.State{
		ID:             str(m[fieldID]),
		OwnerID:        str(m[fieldUserID]),
		Name:           str(m[fieldName]),
		Slug:           str(m[fieldSlug]),
		Description:    str(m[fieldDescription]),
		CollectionName: str(m[fieldCollectionName]),
		Schema:         schema.Reconstruct(def),
		Indexes:        specs,
		APIEnabled:     boolOr(m[fieldAPIEnabled], true),
		ReadAccess:     level(m[fieldReadAccess]),
		WriteAccess:    level(m[fieldWriteAccess]),
		DocumentCount:  int64Of(m[fieldDocumentCount]),
		IsActive:       boolOr(m[fieldIsActive], true),
		CreatedAt:      timeOf(m[fieldCreatedAt]),
		UpdatedAt:      timeOf(m[fieldUpdatedAt]),
	}), nil
}

func indexDefinitions(specs []index.Spec) []index.Definition {
	out := make([]index.Definition, len(specs))
	for i, s := range specs {
		out[i] = s.Definition()
	}
	return out
}

// objectID parses a cluster id. ok is false for malformed ids.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

// toPlain turns tagged structs into maps and slices the store can persist.
func toPlain(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromPlain(v, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func boolOr(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func level(v any) access.Level {
	l, err := access.ParseLevel(str(v))
	if err != nil {
		return access.Private
	}
	return l
}

func int64Of(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func timeOf(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
