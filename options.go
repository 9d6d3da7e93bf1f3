package clusterdb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	mongoURI           string
	database           string
	clustersCollection string

	redisAddrs    []string
	redisPassword string

	readinessTimeout time.Duration
	countTTL         time.Duration

	streamPrefix string
	streamMaxLen int64
	service      string

	defaultPageSize int
	maxPageSize     int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		clustersCollection: "clusters",
		readinessTimeout:   defaultReadinessTimeout,
		countTTL:           5 * time.Minute,
		streamPrefix:       "events:",
		service:            "clusterdb",
	}
}

// WithMongo sets the document store. database overrides the database named
// in uri; leave it empty to use the URI's.
func WithMongo(uri, database string) Option {
	return optionFunc(func(c *clientConfig) {
		c.mongoURI = uri
		c.database = database
	})
}

// WithRedis enables the document count cache and the event stream.
// Without it both are disabled.
func WithRedis(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = addrs
	})
}

// WithRedisPassword sets the Redis AUTH password.
func WithRedisPassword(password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisPassword = password
	})
}

// WithClustersCollection overrides the registry collection name.
// Default: "clusters".
func WithClustersCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.clustersCollection = name
	})
}

// WithReadinessTimeout bounds how long New waits for each store.
// Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithCountTTL sets how long cached document counts live. Default: 5m.
func WithCountTTL(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.countTTL = d
	})
}

// WithEvents shapes the event stream: streams are named prefix+topic,
// trimmed to roughly maxLen entries, and stamped with service.
func WithEvents(prefix, service string, maxLen int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.streamPrefix = prefix
		c.service = service
		c.streamMaxLen = maxLen
	})
}

// WithPagination sets the default and maximum page sizes for ListDocuments.
// Defaults: 20 and 100.
func WithPagination(defaultSize, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
