package clusterdb

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
)

// TypedCluster is a generic document handle over one cluster. Items cross
// it through their JSON form, so json tags name the document keys and a
// `json:"_id,omitempty"` string field receives the document id.
type TypedCluster[T any] struct {
	client    *Client
	clusterID string
	requester string
}

// Typed creates a typed handle acting as requester on the given cluster.
func Typed[T any](client *Client, clusterID, requester string) *TypedCluster[T] {
	return &TypedCluster[T]{client: client, clusterID: clusterID, requester: requester}
}

// Create stores item and returns the new document id.
func (tc *TypedCluster[T]) Create(ctx context.Context, item T) (string, error) {
	body, err := toBody(item)
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	d, err := tc.client.CreateDocument(ctx, tc.clusterID, tc.requester, body)
	if err != nil {
		return "", err
	}
	return d.ID, nil
}

// Get retrieves a typed item by id.
func (tc *TypedCluster[T]) Get(ctx context.Context, id string) (T, error) {
	d, err := tc.client.GetDocument(ctx, tc.clusterID, tc.requester, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeDocument[T](d)
}

// List returns one page of typed items.
func (tc *TypedCluster[T]) List(ctx context.Context, q ListQuery) ([]T, Pagination, error) {
	p, err := tc.client.ListDocuments(ctx, tc.clusterID, tc.requester, q)
	if err != nil {
		return nil, Pagination{}, err
	}
	items := make([]T, len(p.Documents))
	for i, d := range p.Documents {
		if items[i], err = decodeDocument[T](d); err != nil {
			return nil, Pagination{}, err
		}
	}
	return items, p.Pagination, nil
}

// Update sets every top-level field of item on the stored document.
func (tc *TypedCluster[T]) Update(ctx context.Context, id string, item T) (T, error) {
	body, err := toBody(item)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("update: %w", err)
	}
	d, err := tc.client.UpdateDocument(ctx, tc.clusterID, tc.requester, id, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeDocument[T](d)
}

// Patch merges fields into the stored document, nil removes a field.
func (tc *TypedCluster[T]) Patch(ctx context.Context, id string, fields map[string]any) (T, error) {
	d, err := tc.client.PatchDocument(ctx, tc.clusterID, tc.requester, id, fields)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeDocument[T](d)
}

// Delete removes an item by id.
func (tc *TypedCluster[T]) Delete(ctx context.Context, id string) error {
	return tc.client.DeleteDocument(ctx, tc.clusterID, tc.requester, id)
}

// Count returns the number of items in the cluster.
func (tc *TypedCluster[T]) Count(ctx context.Context) (int64, error) {
	return tc.client.CountDocuments(ctx, tc.clusterID, tc.requester)
}

// toBody converts a typed item to a document body without engine-managed keys.
func toBody(item any) (map[string]any, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	var body map[string]any
	if err := json.Unmarshal(b, &body); err != nil {
		return nil, fmt.Errorf("item must encode as a JSON object: %w", err)
	}
	for k := range managedKeys {
		delete(body, k)
	}
	return body, nil
}

// decodeDocument converts a Document back to T, engine-managed keys included.
func decodeDocument[T any](d Document) (T, error) {
	var out T
	m := maps.Clone(d.Fields)
	if m == nil {
		m = make(map[string]any, 3)
	}
	m["_id"] = d.ID
	if !d.CreatedAt.IsZero() {
		m["createdAt"] = d.CreatedAt
	}
	if !d.UpdatedAt.IsZero() {
		m["updatedAt"] = d.UpdatedAt
	}
	b, err := json.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("marshal document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return out, nil
}
