// Package events publishes domain events to Redis Streams.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/clusterdb/internal/db"
	"github.com/kailas-cloud/clusterdb/internal/domain/event"
)

// Defaults for the stream layout.
const (
	DefaultStreamPrefix = "events:"
	DefaultMaxLen       = 100_000
)

// store is the consumer interface for the event bus (ISP).
type store interface {
	XAdd(ctx context.Context, e db.StreamEntry) (string, error)
}

// Config shapes published entries.
type Config struct {
	// StreamPrefix is prepended to the topic to name the stream.
	StreamPrefix string
	// MaxLen caps each stream approximately. Negative disables trimming.
	MaxLen int64
	// Service stamps every event that has no service yet.
	Service string
}

// Publisher appends one stream entry per event: type, key (user id) and
// the JSON payload.
type Publisher struct {
	store     store
	cfg       Config
	published *prometheus.CounterVec
}

// New creates a publisher.
// published is a counter vec with labels "topic" and "status", passed explicitly.
func New(s store, cfg Config, published *prometheus.CounterVec) *Publisher {
	if cfg.StreamPrefix == "" {
		cfg.StreamPrefix = DefaultStreamPrefix
	}
	switch {
	case cfg.MaxLen == 0:
		cfg.MaxLen = DefaultMaxLen
	case cfg.MaxLen < 0:
		cfg.MaxLen = 0
	}
	return &Publisher{store: s, cfg: cfg, published: published}
}

// Publish appends e to the stream of topic.
func (p *Publisher) Publish(ctx context.Context, topic string, e event.Event) error {
	if e.Service == "" {
		e.Service = p.cfg.Service
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", e.Type, err)
	}

	_, err = p.store.XAdd(ctx, db.StreamEntry{
		Stream: p.cfg.StreamPrefix + topic,
		MaxLen: p.cfg.MaxLen,
		Fields: map[string]string{
			"type":    string(e.Type),
			"key":     e.UserID,
			"payload": string(payload),
		},
	})
	if err != nil {
		p.inc(topic, "error")
		return fmt.Errorf("publish %s to %s: %w", e.Type, topic, err)
	}
	p.inc(topic, "ok")
	return nil
}

func (p *Publisher) inc(topic, status string) {
	if p.published != nil {
		p.published.WithLabelValues(topic, status).Inc()
	}
}

// Noop drops every event. It stands in when no event bus is configured.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, string, event.Event) error { return nil }
