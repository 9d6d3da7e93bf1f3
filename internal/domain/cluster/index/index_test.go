package index

import (
	"strings"
	"testing"
)

func TestNew_DefaultsToAscending(t *testing.T) {
	s, err := New(Definition{Field: "name"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Order() != Asc {
		t.Errorf("Order() = %d, want %d", s.Order(), Asc)
	}
}

func TestNew_InvalidOrder(t *testing.T) {
	_, err := New(Definition{Field: "name", Order: 2})
	if err == nil || !strings.Contains(err.Error(), "1 or -1") {
		t.Fatalf("expected order error, got %v", err)
	}
}

func TestNew_EmptyField(t *testing.T) {
	if _, err := New(Definition{}); err == nil {
		t.Fatal("expected error for empty field")
	}
}

func TestNew_OperatorField(t *testing.T) {
	if _, err := New(Definition{Field: "$text"}); err == nil {
		t.Fatal("expected error for operator field")
	}
}

func TestNewList_Duplicate(t *testing.T) {
	_, err := NewList([]Definition{{Field: "a"}, {Field: "a", Order: -1}})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestEqual(t *testing.T) {
	a, _ := NewList([]Definition{{Field: "a"}, {Field: "b", Order: -1, Unique: true}})
	b, _ := NewList([]Definition{{Field: "a", Order: 1}, {Field: "b", Order: -1, Unique: true}})
	c, _ := NewList([]Definition{{Field: "b", Order: -1, Unique: true}, {Field: "a"}})

	if !Equal(a, b) {
		t.Error("expected a == b")
	}
	if Equal(a, c) {
		t.Error("order of specs matters")
	}
}

func TestReconstruct_RoundTrip(t *testing.T) {
	def := Definition{Field: "age", Order: -1, Unique: true}
	if got := Reconstruct(def).Definition(); got != def {
		t.Errorf("Definition() = %+v, want %+v", got, def)
	}
}
