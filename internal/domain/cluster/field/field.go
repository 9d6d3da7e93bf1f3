package field

import (
	"fmt"
	"reflect"
	"slices"
)

// Type is the declared value type of a schema field.
type Type string

// Field type constants.
const (
	String  Type = "String"
	Number  Type = "Number"
	Boolean Type = "Boolean"
	Date    Type = "Date"
	Array   Type = "Array"
	Object  Type = "Object"
	// Mixed accepts any value.
	Mixed Type = "Mixed"
)

// ParseType maps a raw type name to a Type. Unknown names fall back to Mixed.
func ParseType(raw string) Type {
	switch t := Type(raw); t {
	case String, Number, Boolean, Date, Array, Object, Mixed:
		return t
	default:
		return Mixed
	}
}

// IsContainer reports whether values of this type may hold nested paths.
func (t Type) IsContainer() bool { return t == Object || t == Mixed }

var reservedFieldNames = map[string]bool{
	"_id": true, "createdAt": true, "updatedAt": true, "__v": true,
}

// IsReserved reports whether name is managed by the engine and cannot be declared.
func IsReserved(name string) bool { return reservedFieldNames[name] }

// Field is an immutable value object describing one declared document field.
type Field struct {
	name       string
	fieldType  Type
	required   bool
	hasDefault bool
	def        any
	enum       []string
}

// Definition is the raw, user-supplied form of a field.
type Definition struct {
	Name     string   `json:"name" bson:"name"`
	Type     string   `json:"type" bson:"type"`
	Required bool     `json:"required,omitempty" bson:"required,omitempty"`
	Default  any      `json:"default,omitempty" bson:"default,omitempty"`
	Enum     []string `json:"enum,omitempty" bson:"enum,omitempty"`
}

// New validates a Definition and creates a Field.
// The name must be non-empty, at most 128 chars, not reserved and free of '$' and '.'.
// A default value must itself satisfy the type and enum.
func New(def Definition) (Field, error) {
	if def.Name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(def.Name) > 128 {
		return Field{}, fmt.Errorf("field name %q too long (max 128)", def.Name)
	}
	if reservedFieldNames[def.Name] {
		return Field{}, fmt.Errorf("field name %q is reserved", def.Name)
	}
	for _, r := range def.Name {
		if r == '$' || r == '.' {
			return Field{}, fmt.Errorf("field name %q must not contain '$' or '.'", def.Name)
		}
	}

	f := Field{
		name:      def.Name,
		fieldType: ParseType(def.Type),
		required:  def.Required,
		enum:      slices.Clone(def.Enum),
	}
	if def.Default != nil {
		v, err := f.Check(def.Default)
		if err != nil {
			return Field{}, fmt.Errorf("default for %q: %w", def.Name, err)
		}
		f.hasDefault = true
		f.def = v
	}
	return f, nil
}

// Reconstruct creates a Field without validation (storage hydration).
func Reconstruct(def Definition) Field {
	return Field{
		name:       def.Name,
		fieldType:  ParseType(def.Type),
		required:   def.Required,
		hasDefault: def.Default != nil,
		def:        def.Default,
		enum:       def.Enum,
	}
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// FieldType returns the declared value type.
func (f Field) FieldType() Type { return f.fieldType }

// Required reports whether the field must be present and non-empty.
func (f Field) Required() bool { return f.required }

// Default returns the default value and whether one is set.
func (f Field) Default() (any, bool) { return f.def, f.hasDefault }

// Enum returns the allowed values, empty when unrestricted.
func (f Field) Enum() []string { return f.enum }

// Definition returns the raw form of the field.
func (f Field) Definition() Definition {
	var def any
	if f.hasDefault {
		def = f.def
	}
	return Definition{
		Name:     f.name,
		Type:     string(f.fieldType),
		Required: f.required,
		Default:  def,
		Enum:     f.enum,
	}
}

// IsEmpty reports whether v counts as missing for a required field.
func (f Field) IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && f.fieldType == String {
		return s == ""
	}
	return false
}

// Check casts v to the field type and applies the enum restriction.
// The returned value is the normalized form to store.
func (f Field) Check(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	caster, ok := casters[f.fieldType]
	if !ok {
		caster = castMixed
	}
	out, err := caster(v)
	if err != nil {
		return nil, fmt.Errorf("%w, got %s", err, describe(v))
	}
	if len(f.enum) > 0 && isScalar(out) {
		if !slices.Contains(f.enum, fmt.Sprint(out)) {
			return nil, fmt.Errorf("must be one of %v", f.enum)
		}
	}
	return out, nil
}

func isScalar(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return false
	default:
		return true
	}
}
