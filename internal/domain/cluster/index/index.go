package index

import (
	"fmt"
	"strings"
)

// Order is the sort direction of an index key.
type Order int

// Index directions.
const (
	Asc  Order = 1
	Desc Order = -1
)

// Definition is the raw, user-supplied form of an index spec.
type Definition struct {
	Field  string `json:"field" bson:"field"`
	Order  int    `json:"order,omitempty" bson:"order"`
	Unique bool   `json:"unique,omitempty" bson:"unique,omitempty"`
}

// Spec is an immutable secondary index declaration.
type Spec struct {
	field  string
	order  Order
	unique bool
}

// New validates and creates a Spec. A zero order means ascending.
func New(def Definition) (Spec, error) {
	if def.Field == "" {
		return Spec{}, fmt.Errorf("index field is required")
	}
	if strings.HasPrefix(def.Field, "$") {
		return Spec{}, fmt.Errorf("index field %q must not start with '$'", def.Field)
	}
	order := Order(def.Order)
	switch order {
	case 0:
		order = Asc
	case Asc, Desc:
	default:
		return Spec{}, fmt.Errorf("index order for %q must be 1 or -1, got %d", def.Field, def.Order)
	}
	return Spec{field: def.Field, order: order, unique: def.Unique}, nil
}

// NewList validates a list of definitions. Fields must be unique within the list.
func NewList(defs []Definition) ([]Spec, error) {
	specs := make([]Spec, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		s, err := New(d)
		if err != nil {
			return nil, err
		}
		if seen[s.field] {
			return nil, fmt.Errorf("duplicate index field: %s", s.field)
		}
		seen[s.field] = true
		specs = append(specs, s)
	}
	return specs, nil
}

// Reconstruct creates a Spec without validation (storage hydration).
func Reconstruct(def Definition) Spec {
	order := Order(def.Order)
	if order != Desc {
		order = Asc
	}
	return Spec{field: def.Field, order: order, unique: def.Unique}
}

// Field returns the indexed document path.
func (s Spec) Field() string { return s.field }

// Order returns the key direction.
func (s Spec) Order() Order { return s.order }

// Unique reports whether a unique single-field index is also requested.
func (s Spec) Unique() bool { return s.unique }

// Definition returns the raw form of the spec.
func (s Spec) Definition() Definition {
	return Definition{Field: s.field, Order: int(s.order), Unique: s.unique}
}

// Equal reports whether two lists declare the same indexes in the same order.
func Equal(a, b []Spec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
