package clusterdb

// ClusterOption configures cluster creation.
type ClusterOption func(*clusterConfig)

type clusterConfig struct {
	description string
	schema      *Schema
	indexes     []Index
	readAccess  AccessLevel
	writeAccess AccessLevel
}

// Description sets the cluster description.
func Description(d string) ClusterOption {
	return func(c *clusterConfig) {
		c.description = d
	}
}

// WithSchema replaces the declared schema.
func WithSchema(s Schema) ClusterOption {
	return func(c *clusterConfig) {
		c.schema = &s
	}
}

// WithField declares one schema field. Without any field or WithSchema the
// cluster is schema-less and accepts arbitrary documents.
func WithField(f Field) ClusterOption {
	return func(c *clusterConfig) {
		if c.schema == nil {
			c.schema = &Schema{}
		}
		c.schema.Fields = append(c.schema.Fields, f)
	}
}

// Strict rejects document keys that the schema does not declare.
func Strict() ClusterOption {
	return func(c *clusterConfig) {
		if c.schema == nil {
			c.schema = &Schema{}
		}
		c.schema.Strict = true
	}
}

// WithIndex declares a secondary index. Index creation is best-effort.
func WithIndex(ix Index) ClusterOption {
	return func(c *clusterConfig) {
		c.indexes = append(c.indexes, ix)
	}
}

// ReadAccess sets who may read documents. Default: Private.
func ReadAccess(l AccessLevel) ClusterOption {
	return func(c *clusterConfig) {
		c.readAccess = l
	}
}

// WriteAccess sets who may write documents. Default: Private.
func WriteAccess(l AccessLevel) ClusterOption {
	return func(c *clusterConfig) {
		c.writeAccess = l
	}
}
