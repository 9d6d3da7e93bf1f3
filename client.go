package clusterdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	dbMongo "github.com/kailas-cloud/clusterdb/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/clusterdb/internal/db/redis"
	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/domain/query"
	"github.com/kailas-cloud/clusterdb/internal/metrics"
	"github.com/kailas-cloud/clusterdb/internal/repository/accessor"
	clusterrepo "github.com/kailas-cloud/clusterdb/internal/repository/cluster"
	"github.com/kailas-cloud/clusterdb/internal/repository/countcache"
	documentrepo "github.com/kailas-cloud/clusterdb/internal/repository/document"
	"github.com/kailas-cloud/clusterdb/internal/repository/events"
	clusteruc "github.com/kailas-cloud/clusterdb/internal/usecase/cluster"
	documentuc "github.com/kailas-cloud/clusterdb/internal/usecase/document"
	healthuc "github.com/kailas-cloud/clusterdb/internal/usecase/health"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type clusterUseCase interface {
	Create(ctx context.Context, in clusteruc.CreateInput) (domcluster.Cluster, error)
	List(ctx context.Context, ownerID string) ([]domcluster.Cluster, error)
	Get(ctx context.Context, id, requester string) (domcluster.Cluster, error)
	Update(ctx context.Context, id, requester string, in clusteruc.UpdateInput) (domcluster.Cluster, error)
	Delete(ctx context.Context, id, requester string) error
}

type documentUseCase interface {
	Create(ctx context.Context, clusterID, requester string, body map[string]any) (domdoc.Document, error)
	List(ctx context.Context, clusterID, requester string, params query.Params) (documentuc.Page, error)
	Get(ctx context.Context, clusterID, requester, docID string) (domdoc.Document, error)
	Update(ctx context.Context, clusterID, requester, docID string, body map[string]any) (domdoc.Document, error)
	Patch(ctx context.Context, clusterID, requester, docID string, body map[string]any) (domdoc.Document, error)
	Delete(ctx context.Context, clusterID, requester, docID string) error
	DeleteMany(ctx context.Context, clusterID, requester string, params query.Params) (int64, error)
	Count(ctx context.Context, clusterID, requester string) (int64, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the clusterdb entry point. It is safe for concurrent use.
type Client struct {
	mongo     *dbMongo.Store
	redis     *dbRedis.Store
	clusters  clusterUseCase
	documents documentUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New connects to the configured stores and wires the engine.
// The provided context bounds the initial readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.mongoURI == "" {
		return nil, errors.New("clusterdb: mongo uri required (use WithMongo)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	mongoStore, err := dbMongo.NewStore(ctx, dbMongo.Config{
		URI:            cfg.mongoURI,
		Database:       cfg.database,
		ConnectTimeout: cfg.readinessTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("clusterdb: document store not ready: %w", err)
	}

	var redisStore *dbRedis.Store
	if len(cfg.redisAddrs) > 0 {
		redisStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		})
		if err != nil {
			_ = mongoStore.Close(ctx)
			return nil, fmt.Errorf("clusterdb: create redis store: %w", err)
		}
		if err := redisStore.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			redisStore.Close()
			_ = mongoStore.Close(ctx)
			return nil, fmt.Errorf("clusterdb: redis not ready: %w", err)
		}
	}

	return wireClient(ctx, mongoStore, redisStore, cfg, logger, obs), nil
}

func wireClient(
	ctx context.Context,
	mongoStore *dbMongo.Store,
	redisStore *dbRedis.Store,
	cfg *clientConfig,
	logger *zap.Logger,
	obs *observer,
) *Client {
	clusterRepo := clusterrepo.New(mongoStore, cfg.clustersCollection)
	if err := clusterRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to ensure cluster registry indexes", zap.Error(err))
	}
	accessors := accessor.New(documentrepo.New(mongoStore))

	var (
		counts    documentuc.CountCache = countcache.Noop{}
		publisher documentuc.Publisher  = events.Noop{}
		// Pass nil interface (not typed nil pointer!) when Redis is off.
		redisPinger healthuc.Pinger
	)
	if redisStore != nil {
		counts = countcache.New(redisStore, cfg.countTTL, metrics.CountCacheTotal, logger)
		publisher = events.New(redisStore, events.Config{
			StreamPrefix: cfg.streamPrefix,
			MaxLen:       cfg.streamMaxLen,
			Service:      cfg.service,
		}, metrics.EventsPublishedTotal)
		redisPinger = redisStore
	}

	return &Client{
		mongo:    mongoStore,
		redis:    redisStore,
		clusters: clusteruc.New(clusterRepo, accessors, publisher, counts, logger),
		documents: documentuc.New(clusterRepo, accessors, publisher, counts, logger).
			WithPagination(cfg.defaultPageSize, cfg.maxPageSize),
		healthSvc: healthuc.New(mongoStore, redisPinger),
		obs:       obs,
	}
}

// Close releases all connections.
func (c *Client) Close(ctx context.Context) error {
	if c.redis != nil {
		c.redis.Close()
	}
	if c.mongo != nil {
		if err := c.mongo.Close(ctx); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}
	return nil
}

// Ping checks connectivity of every configured store.
func (c *Client) Ping(ctx context.Context) error {
	var errs []error
	if c.mongo != nil {
		errs = append(errs, c.mongo.Ping(ctx))
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Ping(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// --- Clusters ---

// CreateCluster registers a cluster owned by ownerID. A name the owner
// already uses gets a timestamp suffix on its slug.
func (c *Client) CreateCluster(ctx context.Context, ownerID, name string, opts ...ClusterOption) (Cluster, error) {
	done := c.obs.track(opCreateCluster, "")
	cfg := &clusterConfig{}
	for _, o := range opts {
		o(cfg)
	}
	cl, err := c.clusters.Create(ctx, toCreateInput(ownerID, name, cfg))
	done(err)
	if err != nil {
		return Cluster{}, fmt.Errorf("create cluster: %w", err)
	}
	return fromCluster(cl), nil
}

// ListClusters returns the owner's clusters, newest first.
func (c *Client) ListClusters(ctx context.Context, ownerID string) ([]Cluster, error) {
	done := c.obs.track(opListClusters, "")
	cs, err := c.clusters.List(ctx, ownerID)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	out := make([]Cluster, len(cs))
	for i, cl := range cs {
		out[i] = fromCluster(cl)
	}
	return out, nil
}

// GetCluster returns a cluster the requester may read.
// An empty requester is anonymous.
func (c *Client) GetCluster(ctx context.Context, id, requester string) (Cluster, error) {
	done := c.obs.track(opGetCluster, id)
	cl, err := c.clusters.Get(ctx, id, requester)
	done(err)
	if err != nil {
		return Cluster{}, fmt.Errorf("get cluster: %w", err)
	}
	return fromCluster(cl), nil
}

// ClusterSchema returns the cluster's document shape as a JSON Schema.
func (c *Client) ClusterSchema(ctx context.Context, id, requester string) (*jsonschema.Schema, error) {
	done := c.obs.track(opClusterSchema, id)
	cl, err := c.clusters.Get(ctx, id, requester)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("cluster schema: %w", err)
	}
	return cl.Schema().JSONSchema(cl.Name()), nil
}

// UpdateCluster applies a partial update. Only the owner may update.
func (c *Client) UpdateCluster(ctx context.Context, id, requester string, u ClusterUpdate) (Cluster, error) {
	done := c.obs.track(opUpdateCluster, id)
	cl, err := c.clusters.Update(ctx, id, requester, toUpdateInput(u))
	done(err)
	if err != nil {
		return Cluster{}, fmt.Errorf("update cluster: %w", err)
	}
	return fromCluster(cl), nil
}

// DeleteCluster drops the cluster and all of its documents. Only the owner may delete.
func (c *Client) DeleteCluster(ctx context.Context, id, requester string) error {
	done := c.obs.track(opDeleteCluster, id)
	err := c.clusters.Delete(ctx, id, requester)
	done(err)
	if err != nil {
		return fmt.Errorf("delete cluster: %w", err)
	}
	return nil
}

// --- Documents ---

// CreateDocument validates body against the cluster schema and stores it.
func (c *Client) CreateDocument(ctx context.Context, clusterID, requester string, body map[string]any) (Document, error) {
	done := c.obs.track(opCreateDocument, clusterID)
	d, err := c.documents.Create(ctx, clusterID, requester, body)
	done(err)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return fromDocument(d), nil
}

// ListDocuments returns one page of matching documents.
func (c *Client) ListDocuments(ctx context.Context, clusterID, requester string, q ListQuery) (Page, error) {
	done := c.obs.track(opListDocuments, clusterID)
	params, err := toParams(q)
	if err != nil {
		done(err)
		return Page{}, fmt.Errorf("list documents: %w", err)
	}
	p, err := c.documents.List(ctx, clusterID, requester, params)
	done(err)
	if err != nil {
		return Page{}, fmt.Errorf("list documents: %w", err)
	}
	return fromPage(p), nil
}

// GetDocument returns one document.
func (c *Client) GetDocument(ctx context.Context, clusterID, requester, docID string) (Document, error) {
	done := c.obs.track(opGetDocument, clusterID)
	d, err := c.documents.Get(ctx, clusterID, requester, docID)
	done(err)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return fromDocument(d), nil
}

// UpdateDocument sets the top-level fields present in body.
func (c *Client) UpdateDocument(
	ctx context.Context, clusterID, requester, docID string, body map[string]any,
) (Document, error) {
	done := c.obs.track(opUpdateDocument, clusterID)
	d, err := c.documents.Update(ctx, clusterID, requester, docID, body)
	done(err)
	if err != nil {
		return Document{}, fmt.Errorf("update document: %w", err)
	}
	return fromDocument(d), nil
}

// PatchDocument merges body into the document. Nested objects merge key by
// key and nil values remove optional fields.
func (c *Client) PatchDocument(
	ctx context.Context, clusterID, requester, docID string, body map[string]any,
) (Document, error) {
	done := c.obs.track(opPatchDocument, clusterID)
	d, err := c.documents.Patch(ctx, clusterID, requester, docID, body)
	done(err)
	if err != nil {
		return Document{}, fmt.Errorf("patch document: %w", err)
	}
	return fromDocument(d), nil
}

// DeleteDocument removes one document.
func (c *Client) DeleteDocument(ctx context.Context, clusterID, requester, docID string) error {
	done := c.obs.track(opDeleteDocument, clusterID)
	err := c.documents.Delete(ctx, clusterID, requester, docID)
	done(err)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// DeleteDocuments removes every document matching q and returns how many
// were removed. Page, Limit, Sort and Select are ignored.
func (c *Client) DeleteDocuments(ctx context.Context, clusterID, requester string, q ListQuery) (int64, error) {
	done := c.obs.track(opDeleteDocuments, clusterID)
	params, err := toParams(q)
	if err == nil {
		var n int64
		n, err = c.documents.DeleteMany(ctx, clusterID, requester, params)
		if err == nil {
			done(nil)
			return n, nil
		}
	}
	done(err)
	return 0, fmt.Errorf("delete documents: %w", err)
}

// CountDocuments returns the number of documents in the cluster.
func (c *Client) CountDocuments(ctx context.Context, clusterID, requester string) (int64, error) {
	done := c.obs.track(opCountDocuments, clusterID)
	n, err := c.documents.Count(ctx, clusterID, requester)
	done(err)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
