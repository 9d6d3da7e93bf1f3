package cluster

import (
	"time"

	"github.com/kailas-cloud/clusterdb/internal/domain/access"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
)

// State is the flat persisted form of a Cluster.
type State struct {
	ID             string
	OwnerID        string
	Name           string
	Slug           string
	Description    string
	CollectionName string
	Schema         schema.Descriptor
	Indexes        []index.Spec
	APIEnabled     bool
	ReadAccess     access.Level
	WriteAccess    access.Level
	DocumentCount  int64
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reconstruct creates a Cluster without validation (storage hydration).
func Reconstruct(s State) Cluster {
	return Cluster{
		id:             s.ID,
		ownerID:        s.OwnerID,
		name:           s.Name,
		slug:           s.Slug,
		description:    s.Description,
		collectionName: s.CollectionName,
		schema:         s.Schema,
		indexes:        s.Indexes,
		apiEnabled:     s.APIEnabled,
		readAccess:     s.ReadAccess,
		writeAccess:    s.WriteAccess,
		documentCount:  s.DocumentCount,
		active:         s.IsActive,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}
}

// State returns the flat persisted form.
func (c Cluster) State() State {
	return State{
		ID:             c.id,
		OwnerID:        c.ownerID,
		Name:           c.name,
		Slug:           c.slug,
		Description:    c.description,
		CollectionName: c.collectionName,
		Schema:         c.schema,
		Indexes:        c.indexes,
		APIEnabled:     c.apiEnabled,
		ReadAccess:     c.readAccess,
		WriteAccess:    c.writeAccess,
		DocumentCount:  c.documentCount,
		IsActive:       c.active,
		CreatedAt:      c.createdAt,
		UpdatedAt:      c.updatedAt,
	}
}
