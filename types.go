package clusterdb

import "time"

// AccessLevel is the visibility of one operation class on a cluster.
type AccessLevel string

// Access levels. The owner always has full access.
const (
	Public        AccessLevel = "public"
	Authenticated AccessLevel = "authenticated"
	Private       AccessLevel = "private"
)

// FieldType is the declared type of a schema field.
type FieldType string

// Field types. Unknown names are treated as FieldMixed.
const (
	FieldString  FieldType = "String"
	FieldNumber  FieldType = "Number"
	FieldBoolean FieldType = "Boolean"
	FieldDate    FieldType = "Date"
	FieldArray   FieldType = "Array"
	FieldObject  FieldType = "Object"
	FieldMixed   FieldType = "Mixed"
)

// Field declares one schema field.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	Default  any
	Enum     []string
}

// Schema is a cluster's declared document shape.
// No fields and Strict=false means schema-less.
type Schema struct {
	Fields []Field
	Strict bool
}

// Index declares a secondary index. Order is 1 (ascending, default) or -1.
type Index struct {
	Field  string
	Order  int
	Unique bool
}

// Cluster is a tenant-owned document namespace.
type Cluster struct {
	ID             string
	OwnerID        string
	Name           string
	Slug           string
	Description    string
	CollectionName string
	Schema         Schema
	Indexes        []Index
	APIEnabled     bool
	ReadAccess     AccessLevel
	WriteAccess    AccessLevel
	DocumentCount  int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// APIPath returns the HTTP path of the cluster's documents.
func (c Cluster) APIPath() string { return "/api/db/clusters/" + c.ID + "/data" }

// ClusterUpdate is a partial cluster update. Nil fields stay unchanged.
// A non-nil Indexes replaces the whole list, an empty one drops them all.
type ClusterUpdate struct {
	Name        *string
	Description *string
	Schema      *Schema
	Indexes     *[]Index
	APIEnabled  *bool
	ReadAccess  *AccessLevel
	WriteAccess *AccessLevel
}

// Document is a stored document. Fields excludes the engine-managed keys.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListQuery selects documents. Filter, Where and Search combine; a Where key
// replaces the same key in Filter.
type ListQuery struct {
	// Filter is a document-store query. Server-side code operators are dropped.
	Filter map[string]any
	// Where holds equality predicates. Several values mean "any of".
	Where  map[string][]string
	Search string
	Page   int
	Limit  int
	// Sort is a comma-separated key list, "-" prefix for descending.
	Sort   string
	Select []string
}

// Pagination describes one page of a list result.
type Pagination struct {
	Page  int
	Limit int
	Total int64
	Pages int64
}

// Page is one page of documents.
type Page struct {
	Documents  []Document
	Pagination Pagination
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}
