package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/clusterdb/internal/db"
)

// Get returns the raw value at key, or db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rc.Do(ctx, s.rc.B().Get().Key(key).Build()).AsBytes()
	switch {
	case err == nil:
		return raw, nil
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	default:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
}

// MGet fetches several keys in one round trip. Missing keys come back nil.
func (s *Store) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	msgs, err := s.rc.Do(ctx, s.rc.B().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	out := make([][]byte, len(msgs))
	for i, m := range msgs {
		if m.IsNil() {
			continue
		}
		if out[i], err = m.AsBytes(); err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
	}
	return out, nil
}

// SetWithTTL writes value at key. A non-positive ttl stores it without expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = s.rc.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	} else {
		cmd = s.rc.B().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	}
	if err := s.rc.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del unlinks keys so large values are reclaimed off the server's main thread.
// Missing keys are not an error.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rc.Do(ctx, s.rc.B().Unlink().Key(keys...).Build()).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Incr increments the counter at key and, when ttl is positive, pushes its
// expiry out to ttl. Both commands go in one pipeline.
func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	cmds := rueidis.Commands{s.rc.B().Incr().Key(key).Build()}
	if ttl > 0 {
		cmds = append(cmds, s.rc.B().Expire().Key(key).Seconds(int64(ttl/time.Second)).Build())
	}
	resps := s.rc.DoMulti(ctx, cmds...)
	n, err := resps[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncr, Err: err}
	}
	for _, r := range resps[1:] {
		if err := r.Error(); err != nil {
			return 0, &db.Error{Op: db.OpIncr, Err: err}
		}
	}
	return n, nil
}
