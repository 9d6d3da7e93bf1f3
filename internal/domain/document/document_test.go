package document

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/clusterdb/internal/domain"
)

func TestValidateID(t *testing.T) {
	if err := ValidateID("66f0c0ffee0ddba11ca7beef"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, id := range []string{"", "abc", "66f0c0ffee0ddba11ca7beeg", "66f0c0ffee0ddba11ca7beef0"} {
		err := ValidateID(id)
		if !errors.Is(err, domain.ErrInvalidReference) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidReference", id, err)
		}
	}
}

func TestMap_InjectsManagedKeys(t *testing.T) {
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	d := Reconstruct("id1", map[string]any{"name": "Rex"}, ts, ts)

	m := d.Map()
	if m["_id"] != "id1" || m["name"] != "Rex" || m["createdAt"] != ts || m["updatedAt"] != ts {
		t.Errorf("unexpected map: %v", m)
	}
	if _, ok := d.Fields()["_id"]; ok {
		t.Error("Fields() must not carry _id")
	}
}

func TestFields_IsACopy(t *testing.T) {
	d := Reconstruct("id1", map[string]any{"a": 1}, time.Time{}, time.Time{})
	f := d.Fields()
	f["a"] = 2
	if d.Fields()["a"] != 1 {
		t.Error("mutating Fields() must not change the document")
	}
}

func TestMarshalJSON(t *testing.T) {
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	d := Reconstruct("id1", map[string]any{"n": 1}, ts, ts)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"_id":"id1","createdAt":"2025-05-01T12:00:00Z","n":1,"updatedAt":"2025-05-01T12:00:00Z"}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}
