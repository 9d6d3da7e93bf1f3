package field

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		raw  string
		want Type
	}{
		{"String", String},
		{"Number", Number},
		{"Boolean", Boolean},
		{"Date", Date},
		{"Array", Array},
		{"Object", Object},
		{"Mixed", Mixed},
		{"ObjectId", Mixed},
		{"string", Mixed},
		{"", Mixed},
	}
	for _, tt := range tests {
		if got := ParseType(tt.raw); got != tt.want {
			t.Errorf("ParseType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNew_Valid(t *testing.T) {
	f, err := New(Definition{Name: "age", Type: "Number", Required: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Name() != "age" || f.FieldType() != Number || !f.Required() {
		t.Errorf("unexpected field: %+v", f.Definition())
	}
	if _, ok := f.Default(); ok {
		t.Error("expected no default")
	}
}

func TestNew_EmptyName(t *testing.T) {
	_, err := New(Definition{Type: "String"})
	if err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("expected 'required' error, got %v", err)
	}
}

func TestNew_ReservedNames(t *testing.T) {
	for _, name := range []string{"_id", "createdAt", "updatedAt", "__v"} {
		if _, err := New(Definition{Name: name, Type: "String"}); err == nil {
			t.Errorf("expected error for reserved name %q", name)
		}
	}
}

func TestNew_OperatorCharacters(t *testing.T) {
	for _, name := range []string{"$where", "a.b"} {
		if _, err := New(Definition{Name: name}); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestNew_DefaultIsCast(t *testing.T) {
	f, err := New(Definition{Name: "score", Type: "Number", Default: "7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := f.Default()
	if !ok || v != 7.0 {
		t.Errorf("Default() = %v, %v; want 7, true", v, ok)
	}
}

func TestNew_DefaultOutsideEnum(t *testing.T) {
	_, err := New(Definition{Name: "kind", Type: "String", Enum: []string{"cat", "dog"}, Default: "fish"})
	if err == nil {
		t.Fatal("expected error for default outside enum")
	}
}

func TestCheck_String(t *testing.T) {
	f := Reconstruct(Definition{Name: "s", Type: "String"})
	cases := map[any]any{"x": "x", 5: "5", 2.5: "2.5", true: "true"}
	for in, want := range cases {
		got, err := f.Check(in)
		if err != nil {
			t.Errorf("Check(%v) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Check(%v) = %v, want %v", in, got, want)
		}
	}
	if _, err := f.Check(map[string]any{}); err == nil {
		t.Error("expected error for object")
	}
}

func TestCheck_Number(t *testing.T) {
	f := Reconstruct(Definition{Name: "n", Type: "Number"})
	for _, in := range []any{5, int64(5), 5.0, float32(5), "5", json.Number("5")} {
		got, err := f.Check(in)
		if err != nil {
			t.Errorf("Check(%#v) error: %v", in, err)
			continue
		}
		if got != 5.0 {
			t.Errorf("Check(%#v) = %v, want 5", in, got)
		}
	}
	for _, in := range []any{"x", "", true, []any{1}} {
		if _, err := f.Check(in); err == nil {
			t.Errorf("Check(%#v) expected error", in)
		}
	}
}

func TestCheck_Boolean(t *testing.T) {
	f := Reconstruct(Definition{Name: "b", Type: "Boolean"})
	for in, want := range map[any]bool{true: true, "yes": true, "0": false, 1: true, 0.0: false} {
		got, err := f.Check(in)
		if err != nil || got != want {
			t.Errorf("Check(%#v) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := f.Check("maybe"); err == nil {
		t.Error("expected error for 'maybe'")
	}
}

func TestCheck_Date(t *testing.T) {
	f := Reconstruct(Definition{Name: "d", Type: "Date"})
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []any{"2024-03-01", "2024-03-01T00:00:00Z", want.UnixMilli(), want} {
		got, err := f.Check(in)
		if err != nil {
			t.Errorf("Check(%#v) error: %v", in, err)
			continue
		}
		if !got.(time.Time).Equal(want) {
			t.Errorf("Check(%#v) = %v, want %v", in, got, want)
		}
	}
	if _, err := f.Check("yesterday"); err == nil {
		t.Error("expected error for unparsable date")
	}
}

func TestCheck_ArrayAndObject(t *testing.T) {
	arr := Reconstruct(Definition{Name: "a", Type: "Array"})
	got, err := arr.Check([]string{"x", "y"})
	if err != nil || len(got.([]any)) != 2 {
		t.Errorf("Array Check = %v, %v", got, err)
	}
	if _, err := arr.Check("x"); err == nil {
		t.Error("expected error for scalar in Array")
	}

	obj := Reconstruct(Definition{Name: "o", Type: "Object"})
	if _, err := obj.Check(map[string]int{"a": 1}); err != nil {
		t.Errorf("Object Check error: %v", err)
	}
	if _, err := obj.Check([]any{}); err == nil {
		t.Error("expected error for array in Object")
	}
}

func TestCheck_Enum(t *testing.T) {
	f := Reconstruct(Definition{Name: "kind", Type: "String", Enum: []string{"cat", "dog"}})
	if _, err := f.Check("cat"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	_, err := f.Check("fish")
	if err == nil || !strings.Contains(err.Error(), "one of") {
		t.Errorf("expected enum error, got %v", err)
	}
}

func TestIsEmpty(t *testing.T) {
	s := Reconstruct(Definition{Name: "s", Type: "String"})
	if !s.IsEmpty(nil) || !s.IsEmpty("") || s.IsEmpty("x") {
		t.Error("unexpected IsEmpty for String")
	}
	m := Reconstruct(Definition{Name: "m", Type: "Mixed"})
	if m.IsEmpty("") {
		t.Error("empty string is a value for Mixed")
	}
}
