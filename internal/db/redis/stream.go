package redis

import (
	"context"
	"slices"
	"strconv"

	"github.com/redis/rueidis"
	"github.com/samber/lo"

	"github.com/kailas-cloud/clusterdb/internal/db"
)

// XAdd appends an entry with an auto-generated id and returns that id.
// Fields are written in key order. A positive MaxLen trims with MAXLEN ~.
func (s *Store) XAdd(ctx context.Context, e db.StreamEntry) (string, error) {
	keys := lo.Keys(e.Fields)
	slices.Sort(keys)

	var cmd rueidis.Completed
	if e.MaxLen > 0 {
		fv := s.rc.B().Xadd().Key(e.Stream).
			Maxlen().Almost().Threshold(strconv.FormatInt(e.MaxLen, 10)).
			Id("*").FieldValue()
		for _, k := range keys {
			fv = fv.FieldValue(k, e.Fields[k])
		}
		cmd = fv.Build()
	} else {
		fv := s.rc.B().Xadd().Key(e.Stream).Id("*").FieldValue()
		for _, k := range keys {
			fv = fv.FieldValue(k, e.Fields[k])
		}
		cmd = fv.Build()
	}

	id, err := s.rc.Do(ctx, cmd).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpXAdd, Err: err}
	}
	return id, nil
}
