// Package schema compiles user-declared field lists into descriptors and validators.
package schema

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/kailas-cloud/clusterdb/internal/domain"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/field"
)

// MaxFields bounds the number of declared fields per schema.
const MaxFields = 256

// Definition is the raw schema payload attached to a cluster.
type Definition struct {
	Fields []field.Definition `json:"fields" bson:"fields"`
	Strict bool               `json:"strict" bson:"strict"`
}

// Descriptor is a compiled schema (immutable value object).
// Zero fields with strict=false is schema-less mode.
type Descriptor struct {
	fields []field.Field
	strict bool
}

// Schemaless returns the permissive descriptor used when no schema is given.
func Schemaless() Descriptor { return Descriptor{} }

// Compile validates a raw schema payload. A nil payload yields Schemaless.
// Duplicate or invalid field names fail with a ValidationError.
func Compile(def *Definition) (Descriptor, error) {
	if def == nil {
		return Schemaless(), nil
	}
	if len(def.Fields) > MaxFields {
		return Descriptor{}, domain.NewValidationError("schema.fields",
			fmt.Sprintf("too many fields (max %d)", MaxFields))
	}

	verr := &domain.ValidationError{}
	fields := make([]field.Field, 0, len(def.Fields))
	seen := make(map[string]bool, len(def.Fields))
	for i, fd := range def.Fields {
		key := fmt.Sprintf("schema.fields[%d]", i)
		f, err := field.New(fd)
		if err != nil {
			verr.Add(key, err.Error())
			continue
		}
		if seen[f.Name()] {
			verr.Add(key, "duplicate field name: "+f.Name())
			continue
		}
		seen[f.Name()] = true
		fields = append(fields, f)
	}
	if err := verr.OrNil(); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{fields: fields, strict: def.Strict}, nil
}

// Reconstruct creates a Descriptor without validation (storage hydration).
func Reconstruct(def Definition) Descriptor {
	return Descriptor{
		fields: lo.Map(def.Fields, func(fd field.Definition, _ int) field.Field { return field.Reconstruct(fd) }),
		strict: def.Strict,
	}
}

// Fields returns the declared fields in declaration order.
func (d Descriptor) Fields() []field.Field { return d.fields }

// Strict reports whether undeclared keys are rejected.
func (d Descriptor) Strict() bool { return d.strict }

// IsSchemaless reports whether the descriptor accepts any document.
func (d Descriptor) IsSchemaless() bool { return len(d.fields) == 0 && !d.strict }

// Field looks up a declared field by name.
func (d Descriptor) Field(name string) (field.Field, bool) {
	return lo.Find(d.fields, func(f field.Field) bool { return f.Name() == name })
}

// Definition returns the raw form of the descriptor.
func (d Descriptor) Definition() Definition {
	return Definition{
		Fields: lo.Map(d.fields, func(f field.Field, _ int) field.Definition { return f.Definition() }),
		Strict: d.strict,
	}
}
