package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/clusterdb/internal/db"
	"github.com/kailas-cloud/clusterdb/internal/db/redis"
	"github.com/kailas-cloud/clusterdb/internal/domain/event"
)

type mockStreamStore struct {
	entries []db.StreamEntry
	err     error
}

func (m *mockStreamStore) XAdd(_ context.Context, e db.StreamEntry) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.entries = append(m.entries, e)
	return "1-0", nil
}

var testTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_events_total"}, []string{"topic", "status"})
}

func TestPublish_Envelope(t *testing.T) {
	ms := &mockStreamStore{}
	counter := newCounter()
	p := New(ms, Config{Service: "database-service"}, counter)

	e := event.New(event.DocumentCreated, "c1", "u1", testTime).WithDocument("d1")
	require.NoError(t, p.Publish(context.Background(), event.TopicCluster, e))

	require.Len(t, ms.entries, 1)
	entry := ms.entries[0]
	assert.Equal(t, "events:cluster-events", entry.Stream)
	assert.Equal(t, int64(DefaultMaxLen), entry.MaxLen)
	assert.Equal(t, "DOCUMENT_CREATED", entry.Fields["type"])
	assert.Equal(t, "u1", entry.Fields["key"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(entry.Fields["payload"]), &payload))
	assert.Equal(t, "c1", payload["clusterId"])
	assert.Equal(t, "d1", payload["documentId"])
	assert.Equal(t, "database-service", payload["service"])
	assert.Equal(t, "2024-01-02T03:04:05Z", payload["timestamp"])
	assert.NotEmpty(t, payload["id"])

	assert.Equal(t, float64(1), testutil.ToFloat64(counter.WithLabelValues(event.TopicCluster, "ok")))
}

func TestPublish_CountIsCarried(t *testing.T) {
	ms := &mockStreamStore{}
	p := New(ms, Config{MaxLen: -1}, nil)

	e := event.New(event.DocumentsDeleted, "c1", "u1", testTime).WithCount(0)
	require.NoError(t, p.Publish(context.Background(), event.TopicCluster, e))

	assert.Equal(t, int64(0), ms.entries[0].MaxLen)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(ms.entries[0].Fields["payload"]), &payload))
	assert.Equal(t, float64(0), payload["count"])
}

func TestPublish_Error(t *testing.T) {
	counter := newCounter()
	p := New(&mockStreamStore{err: errors.New("NOGROUP")}, Config{}, counter)

	err := p.Publish(context.Background(), event.TopicCluster, event.New(event.ClusterDeleted, "c1", "u1", testTime))
	assert.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(counter.WithLabelValues(event.TopicCluster, "error")))
}

func TestPublish_WithRedisStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)

	client.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return len(cmd) > 6 &&
				cmd[0] == "XADD" && cmd[1] == "bus:cluster-events" &&
				cmd[2] == "MAXLEN" && cmd[3] == "~" && cmd[4] == "10" && cmd[5] == "*" &&
				cmd[6] == "key"
		})).
		Return(mock.Result(mock.RedisString("1-0")))

	p := New(redis.NewStoreForTest(client), Config{StreamPrefix: "bus:", MaxLen: 10}, nil)
	err := p.Publish(context.Background(), event.TopicCluster, event.New(event.ClusterCreated, "c1", "u1", testTime))
	require.NoError(t, err)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), event.TopicCluster, event.Event{}))
}
