package schema

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/samber/lo"

	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/field"
)

// JSONSchema renders the descriptor as a JSON Schema object describing stored documents.
// Engine-managed keys are always present; strict descriptors forbid other properties.
func (d Descriptor) JSONSchema(title string) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Title: title,
		Type:  "object",
		Properties: map[string]*jsonschema.Schema{
			"_id":       {Type: "string"},
			"createdAt": {Type: "string", Format: "date-time"},
			"updatedAt": {Type: "string", Format: "date-time"},
		},
	}
	for _, f := range d.fields {
		prop := typeSchema(f.FieldType())
		if len(f.Enum()) > 0 && f.FieldType() == field.String {
			prop.Enum = lo.Map(f.Enum(), func(e string, _ int) any { return e })
		}
		s.Properties[f.Name()] = prop
		if f.Required() {
			s.Required = append(s.Required, f.Name())
		}
	}
	if d.strict {
		// {"not": {}} is the false schema.
		s.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
	}
	return s
}

func typeSchema(t field.Type) *jsonschema.Schema {
	switch t {
	case field.String:
		return &jsonschema.Schema{Type: "string"}
	case field.Number:
		return &jsonschema.Schema{Type: "number"}
	case field.Boolean:
		return &jsonschema.Schema{Type: "boolean"}
	case field.Date:
		return &jsonschema.Schema{Type: "string", Format: "date-time"}
	case field.Array:
		return &jsonschema.Schema{Type: "array"}
	case field.Object:
		return &jsonschema.Schema{Type: "object"}
	default:
		return &jsonschema.Schema{}
	}
}
