package patch

import (
	"errors"
	"reflect"
	"testing"
)

func TestNew_Empty(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for empty patch")
	}
}

func TestNew_Conflict(t *testing.T) {
	_, err := New(map[string]any{"a": 1}, []string{"a"})
	if err == nil {
		t.Fatal("expected error for a field both set and removed")
	}
}

func TestPaths_Sorted(t *testing.T) {
	p, err := New(map[string]any{"b": 1, "a.x": 2}, []string{"c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a.x", "b", "c"}
	if got := p.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
}

func TestFlatten(t *testing.T) {
	out := make(map[string]any)
	err := Flatten("", map[string]any{
		"name": "Rex",
		"meta": map[string]any{
			"owner": map[string]any{"city": "Oslo"},
			"tags":  []any{"a"},
			"empty": map[string]any{},
		},
	}, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"name":            "Rex",
		"meta.owner.city": "Oslo",
		"meta.tags":       []any{"a"},
		"meta.empty":      map[string]any{},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("Flatten() = %v, want %v", out, want)
	}
}

func TestFlatten_WithPrefix(t *testing.T) {
	out := make(map[string]any)
	if err := Flatten("meta", map[string]any{"a": 1}, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["meta.a"] != 1 {
		t.Errorf("expected meta.a=1, got %v", out)
	}
}

func TestFlatten_RejectsUnaddressableKeys(t *testing.T) {
	tests := []struct {
		name   string
		in     map[string]any
		parent string
		key    string
	}{
		{"dotted", map[string]any{"a.b": 1}, "meta", "a.b"},
		{"operator", map[string]any{"$x": 2}, "meta", "$x"},
		{"empty", map[string]any{"": 3}, "meta", ""},
		{"deep", map[string]any{"owner": map[string]any{"$set": 1}}, "meta.owner", "$set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make(map[string]any)
			err := Flatten("meta", tt.in, out)

			var ke *KeyError
			if !errors.As(err, &ke) {
				t.Fatalf("expected *KeyError, got %v", err)
			}
			if ke.Parent != tt.parent || ke.Key != tt.key {
				t.Errorf("got parent=%q key=%q, want %q %q", ke.Parent, ke.Key, tt.parent, tt.key)
			}
		})
	}
}

func TestValidKey(t *testing.T) {
	for key, want := range map[string]bool{"name": true, "a_b-c": true, "": false, "$x": false, "a.b": false} {
		if got := ValidKey(key); got != want {
			t.Errorf("ValidKey(%q) = %v, want %v", key, got, want)
		}
	}
}
