package document

import (
	"maps"
	"time"

	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
)

// docFromRow converts a normalized stored row into a domain Document.
// Engine-managed keys are lifted out of the payload.
func docFromRow(row map[string]any) domdoc.Document {
	fields := maps.Clone(row)
	id, _ := fields[domdoc.KeyID].(string)
	created, _ := fields[domdoc.KeyCreatedAt].(time.Time)
	updated, _ := fields[domdoc.KeyUpdatedAt].(time.Time)
	delete(fields, domdoc.KeyID)
	delete(fields, domdoc.KeyCreatedAt)
	delete(fields, domdoc.KeyUpdatedAt)
	delete(fields, "__v")
	return domdoc.Reconstruct(id, fields, created, updated)
}

// rowForInsert builds the stored form of a new document.
func rowForInsert(id any, fields map[string]any, now time.Time) map[string]any {
	row := make(map[string]any, len(fields)+3)
	maps.Copy(row, fields)
	row[domdoc.KeyID] = id
	row[domdoc.KeyCreatedAt] = now
	row[domdoc.KeyUpdatedAt] = now
	return row
}
