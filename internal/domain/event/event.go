// Package event defines the notifications emitted after successful mutations.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened.
type Type string

// Event types.
const (
	ClusterCreated   Type = "CLUSTER_CREATED"
	ClusterUpdated   Type = "CLUSTER_UPDATED"
	ClusterDeleted   Type = "CLUSTER_DELETED"
	DocumentCreated  Type = "DOCUMENT_CREATED"
	DocumentUpdated  Type = "DOCUMENT_UPDATED"
	DocumentDeleted  Type = "DOCUMENT_DELETED"
	DocumentsDeleted Type = "DOCUMENTS_DELETED"

	CollectionDropped Type = "COLLECTION_DROPPED"
)

// Topics. Cluster and document events share TopicCluster; changes to the
// physical storage behind a cluster go to TopicStorage.
const (
	TopicCluster = "cluster-events"
	TopicStorage = "storage-events"
)

// Event is the notification envelope.
type Event struct {
	ID             string    `json:"id"`
	Type           Type      `json:"type"`
	ClusterID      string    `json:"clusterId"`
	UserID         string    `json:"userId"`
	DocumentID     string    `json:"documentId,omitempty"`
	Count          *int64    `json:"count,omitempty"`
	Name           string    `json:"name,omitempty"`
	CollectionName string    `json:"collectionName,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Service        string    `json:"service,omitempty"`
}

// New creates an event with a fresh id and timestamp.
func New(t Type, clusterID, userID string, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		ClusterID: clusterID,
		UserID:    userID,
		Timestamp: now.UTC(),
	}
}

// WithDocument sets the affected document id.
func (e Event) WithDocument(id string) Event {
	e.DocumentID = id
	return e
}

// WithCount sets the number of affected documents.
func (e Event) WithCount(n int64) Event {
	e.Count = &n
	return e
}

// WithCluster sets the cluster name and physical collection.
func (e Event) WithCluster(name, collection string) Event {
	e.Name = name
	e.CollectionName = collection
	return e
}
