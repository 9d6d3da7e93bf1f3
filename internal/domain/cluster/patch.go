package cluster

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/clusterdb/internal/domain/access"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
)

// Patch is a partial cluster update. Nil fields are unchanged.
type Patch struct {
	Name        *string
	Description *string
	Schema      *schema.Descriptor
	Indexes     *[]index.Spec
	APIEnabled  *bool
	ReadAccess  *access.Level
	WriteAccess *access.Level
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Schema == nil && p.Indexes == nil &&
		p.APIEnabled == nil && p.ReadAccess == nil && p.WriteAccess == nil
}

// Field names a mutable cluster attribute.
type Field string

// Mutable attributes, named as they are persisted.
const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldSchema      Field = "schema"
	FieldIndexes     Field = "indexes"
	FieldAPIEnabled  Field = "apiEnabled"
	FieldReadAccess  Field = "readAccess"
	FieldWriteAccess Field = "writeAccess"
)

// Changes reports what an applied patch touched. Fields lists every
// attribute the patch set, in declaration order; Schema and Indexes are
// true only when the new value differs from the old one.
type Changes struct {
	Fields  []Field
	Schema  bool
	Indexes bool
}

// Touched reports whether the patch set f.
func (ch Changes) Touched(f Field) bool {
	return slices.Contains(ch.Fields, f)
}

// Apply returns a copy of c with the patch applied. Slug and collection name never change.
func (c Cluster) Apply(p Patch, now time.Time) (Cluster, Changes, error) {
	var ch Changes
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if err := validateName(name); err != nil {
			return Cluster{}, ch, err
		}
		c.name = name
		ch.Fields = append(ch.Fields, FieldName)
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return Cluster{}, ch, err
		}
		c.description = *p.Description
		ch.Fields = append(ch.Fields, FieldDescription)
	}
	if p.Schema != nil {
		ch.Schema = !reflect.DeepEqual(c.schema.Definition(), p.Schema.Definition())
		c.schema = *p.Schema
		ch.Fields = append(ch.Fields, FieldSchema)
	}
	if p.Indexes != nil {
		ch.Indexes = !index.Equal(c.indexes, *p.Indexes)
		c.indexes = *p.Indexes
		ch.Fields = append(ch.Fields, FieldIndexes)
	}
	if p.APIEnabled != nil {
		c.apiEnabled = *p.APIEnabled
		ch.Fields = append(ch.Fields, FieldAPIEnabled)
	}
	if p.ReadAccess != nil {
		if *p.ReadAccess == "" {
			return Cluster{}, ch, fmt.Errorf("read access level is empty")
		}
		c.readAccess = *p.ReadAccess
		ch.Fields = append(ch.Fields, FieldReadAccess)
	}
	if p.WriteAccess != nil {
		if *p.WriteAccess == "" {
			return Cluster{}, ch, fmt.Errorf("write access level is empty")
		}
		c.writeAccess = *p.WriteAccess
		ch.Fields = append(ch.Fields, FieldWriteAccess)
	}
	c.updatedAt = now.UTC()
	return c, ch, nil
}
