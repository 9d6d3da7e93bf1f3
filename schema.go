package clusterdb

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

const tagKey = "clusterdb"

var (
	timeType = reflect.TypeOf(time.Time{})
	// Engine-managed keys never become schema fields.
	managedKeys = map[string]bool{"_id": true, "createdAt": true, "updatedAt": true}
)

// SchemaOf derives a schema from T's exported fields. Field names follow the
// json tag; types follow the Go kind. A `clusterdb` tag adds modifiers:
//
//	Name  string `json:"name" clusterdb:"required"`
//	Kind  string `json:"kind" clusterdb:"enum=cat|dog"`
//	Extra any    `json:"extra" clusterdb:"type=Mixed"`
//	Cache string `json:"-"` // skipped
//
// The returned schema is not strict.
func SchemaOf[T any]() (*Schema, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("clusterdb: type %v is not a struct", t)
	}

	s := &Schema{}
	seen := make(map[string]bool)
	if err := collectFields(t, s, seen); err != nil {
		return nil, err
	}
	return s, nil
}

func collectFields(t reflect.Type, s *Schema, seen map[string]bool) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		name, skip := jsonName(sf)
		if skip {
			continue
		}
		if sf.Anonymous && name == "" && derefType(sf.Type).Kind() == reflect.Struct {
			if err := collectFields(derefType(sf.Type), s, seen); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if managedKeys[name] {
			continue
		}
		if seen[name] {
			return fmt.Errorf("clusterdb: duplicate field %q in %s", name, t)
		}
		seen[name] = true

		f := Field{Name: name, Type: inferType(sf.Type)}
		if err := applyTag(&f, sf); err != nil {
			return err
		}
		s.Fields = append(s.Fields, f)
	}
	return nil
}

// jsonName returns the json key of sf and whether the field is skipped.
func jsonName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" || sf.Tag.Get(tagKey) == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	return name, false
}

// applyTag processes a single struct field's clusterdb tag.
func applyTag(f *Field, sf reflect.StructField) error {
	tag := sf.Tag.Get(tagKey)
	if tag == "" {
		return nil
	}
	for _, part := range strings.Split(tag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "required":
			f.Required = true
		case "enum":
			f.Enum = strings.Split(value, "|")
		case "type":
			f.Type = FieldType(value)
		case "":
		default:
			return fmt.Errorf("clusterdb: unknown modifier %q on field %s", key, sf.Name)
		}
	}
	return nil
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func inferType(t reflect.Type) FieldType {
	t = derefType(t)
	if t == timeType {
		return FieldDate
	}
	switch t.Kind() {
	case reflect.String:
		return FieldString
	case reflect.Bool:
		return FieldBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return FieldNumber
	case reflect.Slice:
		// []byte marshals to a base64 string.
		if t.Elem().Kind() == reflect.Uint8 {
			return FieldString
		}
		return FieldArray
	case reflect.Array:
		return FieldArray
	case reflect.Map, reflect.Struct:
		return FieldObject
	default:
		return FieldMixed
	}
}
