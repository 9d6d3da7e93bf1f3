package patch

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Patch is a validated partial document update.
// Set holds dotted paths to assign. Unset holds top-level fields to remove.
type Patch struct {
	set   map[string]any
	unset []string
}

// New creates a Patch. At least one path must be set or unset.
func New(set map[string]any, unset []string) (Patch, error) {
	if len(set) == 0 && len(unset) == 0 {
		return Patch{}, fmt.Errorf("at least one field must be provided")
	}
	for _, u := range unset {
		if _, ok := set[u]; ok {
			return Patch{}, fmt.Errorf("field %q is both set and removed", u)
		}
	}
	return Patch{set: set, unset: unset}, nil
}

// Set returns path assignments.
func (p Patch) Set() map[string]any { return p.set }

// Unset returns fields to remove, sorted.
func (p Patch) Unset() []string {
	out := slices.Clone(p.unset)
	slices.Sort(out)
	return out
}

// Paths returns every touched path, sorted.
func (p Patch) Paths() []string {
	out := slices.Collect(maps.Keys(p.set))
	out = append(out, p.unset...)
	slices.Sort(out)
	return out
}

// KeyError reports a nested key that cannot be used as a path segment.
type KeyError struct {
	Parent string
	Key    string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("invalid nested field name %q under %q", e.Key, e.Parent)
}

// ValidKey reports whether key can be stored and addressed as a single path
// segment: non-empty, no '$' prefix and no '.'.
func ValidKey(key string) bool {
	return key != "" && !strings.HasPrefix(key, "$") && !strings.Contains(key, ".")
}

// Flatten expands nested maps into dotted paths so sibling keys survive a merge.
// An empty nested map is assigned as-is. Keys are visited in sorted order and
// the first invalid one aborts with a *KeyError.
func Flatten(prefix string, m map[string]any, out map[string]any) error {
	if len(m) == 0 && prefix != "" {
		out[prefix] = map[string]any{}
		return nil
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if !ValidKey(k) {
			return &KeyError{Parent: prefix, Key: k}
		}
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := m[k].(map[string]any); ok {
			if err := Flatten(path, nested, out); err != nil {
				return err
			}
			continue
		}
		out[path] = m[k]
	}
	return nil
}
