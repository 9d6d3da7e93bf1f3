package clusterdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/clusterdb/internal/domain"
)

// Operation names used as the "operation" metric label and log field.
const (
	opCreateCluster   = "create_cluster"
	opListClusters    = "list_clusters"
	opGetCluster      = "get_cluster"
	opClusterSchema   = "cluster_schema"
	opUpdateCluster   = "update_cluster"
	opDeleteCluster   = "delete_cluster"
	opCreateDocument  = "create_document"
	opListDocuments   = "list_documents"
	opGetDocument     = "get_document"
	opUpdateDocument  = "update_document"
	opPatchDocument   = "patch_document"
	opDeleteDocument  = "delete_document"
	opDeleteDocuments = "delete_documents"
	opCountDocuments  = "count_documents"
)

type clientMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clusterdb",
		Subsystem: "client",
		Name:      "operations_total",
		Help:      "Client operations by name and error tag (ok on success).",
	}, []string{"operation", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clusterdb",
		Subsystem: "client",
		Name:      "operation_duration_seconds",
		Help:      "Client operation latency, split by whether the call failed.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation", "failed"})

	var err error
	if calls, err = reuseCollector(reg, calls); err != nil {
		return nil, err
	}
	if latency, err = reuseCollector(reg, latency); err != nil {
		return nil, err
	}
	return &clientMetrics{calls: calls, latency: latency}, nil
}

// reuseCollector registers c, or returns the collector already registered
// under the same descriptor so two clients can share one registry.
func reuseCollector[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return c, fmt.Errorf("clusterdb: register metric: %w", err)
	}
	existing, ok := dup.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("clusterdb: metric registered with a different type: %T", dup.ExistingCollector)
	}
	return existing, nil
}

// observer records client calls. A nil observer records nothing.
type observer struct {
	logger  *zap.Logger
	metrics *clientMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// track starts timing op against clusterID (empty for owner-wide calls)
// and returns the function that finishes it.
func (o *observer) track(op, clusterID string) func(error) {
	if o == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		o.finish(op, clusterID, time.Since(start), err)
	}
}

func (o *observer) finish(op, clusterID string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = ErrorTag(err)
	}

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, status).Inc()
		o.metrics.latency.WithLabelValues(op, fmt.Sprint(err != nil)).Observe(took.Seconds())
	}
	if o.logger == nil {
		return
	}

	fields := []zap.Field{zap.String("op", op), zap.Duration("took", took)}
	if clusterID != "" {
		fields = append(fields, zap.String("cluster_id", clusterID))
	}
	switch {
	case err == nil:
		o.logger.Debug("call completed", fields...)
	case isServerFault(status):
		o.logger.Warn("call failed", append(fields, zap.String("code", status), zap.Error(err))...)
	default:
		o.logger.Debug("call rejected", append(fields, zap.String("code", status), zap.Error(err))...)
	}
}

// isServerFault separates storage and unknown failures from caller mistakes.
func isServerFault(tag string) bool {
	return tag == domain.TagInternal || tag == domain.TagStorageUnavailable
}
