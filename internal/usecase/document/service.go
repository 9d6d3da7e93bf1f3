package document

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/clusterdb/internal/domain"
	"github.com/kailas-cloud/clusterdb/internal/domain/access"
	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/domain/event"
	"github.com/kailas-cloud/clusterdb/internal/domain/query"
	logpkg "github.com/kailas-cloud/clusterdb/internal/logger"
	"github.com/kailas-cloud/clusterdb/internal/metrics"
)

// Pagination describes one page of a list result.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// Page is a list result.
type Page struct {
	Documents  []domdoc.Document `json:"documents"`
	Pagination Pagination        `json:"pagination"`
}

// Service is the document gateway: every document operation on a cluster
// passes the api switch and the access policy before touching storage.
type Service struct {
	clusters  ClusterStore
	accessors Accessors
	publisher Publisher
	counts    CountCache
	builder   query.Builder
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a document gateway.
func New(clusters ClusterStore, accessors Accessors, publisher Publisher, counts CountCache, logger *zap.Logger) *Service {
	return &Service{
		clusters:  clusters,
		accessors: accessors,
		publisher: publisher,
		counts:    counts,
		builder:   query.NewBuilder(0, 0),
		logger:    logger,
		now:       time.Now,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	s.builder = query.NewBuilder(defaultPageSize, maxPageSize)
	return s
}

// target is an authorized cluster with its accessor.
type target struct {
	acc   domdoc.Accessor
	actor string
}

// open loads the cluster and runs the gate: api switch first, then policy.
func (s *Service) open(ctx context.Context, clusterID, requester string, class access.Class) (target, error) {
	c, err := s.clusters.Get(ctx, clusterID)
	if err != nil {
		return target{}, fmt.Errorf("get cluster: %w", err)
	}
	if !c.IsActive() {
		return target{}, fmt.Errorf("get cluster: %w", domain.ErrNotFound)
	}
	if !c.APIEnabled() {
		return target{}, domain.ErrAPIDisabled
	}
	if !access.Decide(c.Policy(), access.Request{Requester: requester, Class: class}) {
		return target{}, domain.ErrAccessDenied
	}

	actor := requester
	if actor == "" {
		actor = c.OwnerID()
	}
	return target{
		acc:   s.accessors.Resolve(c.CollectionName(), c.Schema()),
		actor: actor,
	}, nil
}

// Create validates and stores a new document.
func (s *Service) Create(ctx context.Context, clusterID, requester string, body map[string]any) (domdoc.Document, error) {
	t, err := s.open(ctx, clusterID, requester, access.Write)
	if err != nil {
		return domdoc.Document{}, err
	}
	doc, err := t.acc.Insert(ctx, body)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("create document: %w", err)
	}

	s.adjustCount(ctx, clusterID, 1)
	s.notify(ctx, event.New(event.DocumentCreated, clusterID, t.actor, s.now()).WithDocument(doc.ID()))
	return doc, nil
}

// List runs a paginated query. The page and the total are fetched concurrently.
func (s *Service) List(ctx context.Context, clusterID, requester string, params query.Params) (Page, error) {
	t, err := s.open(ctx, clusterID, requester, access.Read)
	if err != nil {
		return Page{}, err
	}
	plan := s.builder.Build(params)
	if plan.FilterIgnored {
		s.log(ctx).Warn("Ignoring malformed filter", zap.String("cluster_id", clusterID))
	}

	var (
		docs  []domdoc.Document
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = t.acc.Find(gctx, plan)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = t.acc.Count(gctx, plan.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, fmt.Errorf("list documents: %w", err)
	}

	if docs == nil {
		docs = []domdoc.Document{}
	}
	return Page{
		Documents: docs,
		Pagination: Pagination{
			Page:  plan.Page,
			Limit: plan.Limit,
			Total: total,
			Pages: plan.Pages(total),
		},
	}, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, clusterID, requester, docID string) (domdoc.Document, error) {
	t, err := s.open(ctx, clusterID, requester, access.Read)
	if err != nil {
		return domdoc.Document{}, err
	}
	doc, err := t.acc.Get(ctx, docID)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Update overwrites the provided top-level fields.
func (s *Service) Update(ctx context.Context, clusterID, requester, docID string, body map[string]any) (domdoc.Document, error) {
	return s.modify(ctx, clusterID, requester, docID, func(acc domdoc.Accessor) (domdoc.Document, error) {
		return acc.Update(ctx, docID, body)
	})
}

// Patch merges nested objects and removes fields set to null.
func (s *Service) Patch(ctx context.Context, clusterID, requester, docID string, body map[string]any) (domdoc.Document, error) {
	return s.modify(ctx, clusterID, requester, docID, func(acc domdoc.Accessor) (domdoc.Document, error) {
		return acc.Patch(ctx, docID, body)
	})
}

func (s *Service) modify(
	ctx context.Context, clusterID, requester, docID string,
	apply func(domdoc.Accessor) (domdoc.Document, error),
) (domdoc.Document, error) {
	t, err := s.open(ctx, clusterID, requester, access.Write)
	if err != nil {
		return domdoc.Document{}, err
	}
	doc, err := apply(t.acc)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("update document: %w", err)
	}
	s.notify(ctx, event.New(event.DocumentUpdated, clusterID, t.actor, s.now()).WithDocument(docID))
	return doc, nil
}

// Delete removes one document. Deleting a missing document is ErrDocumentNotFound.
func (s *Service) Delete(ctx context.Context, clusterID, requester, docID string) error {
	t, err := s.open(ctx, clusterID, requester, access.Write)
	if err != nil {
		return err
	}
	if err := t.acc.Delete(ctx, docID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.adjustCount(ctx, clusterID, -1)
	s.notify(ctx, event.New(event.DocumentDeleted, clusterID, t.actor, s.now()).WithDocument(docID))
	return nil
}

// DeleteMany removes every document matching the filter part of params
// and returns how many were actually deleted.
func (s *Service) DeleteMany(ctx context.Context, clusterID, requester string, params query.Params) (int64, error) {
	t, err := s.open(ctx, clusterID, requester, access.Write)
	if err != nil {
		return 0, err
	}
	plan := s.builder.Filter(params)
	if plan.FilterIgnored {
		s.log(ctx).Warn("Ignoring malformed filter", zap.String("cluster_id", clusterID))
	}
	n, err := t.acc.DeleteMany(ctx, plan.Filter)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}

	s.adjustCount(ctx, clusterID, -n)
	s.notify(ctx, event.New(event.DocumentsDeleted, clusterID, t.actor, s.now()).WithCount(n))
	return n, nil
}

// Count returns the number of documents in a cluster, served from the count
// cache when possible.
func (s *Service) Count(ctx context.Context, clusterID, requester string) (int64, error) {
	t, err := s.open(ctx, clusterID, requester, access.Read)
	if err != nil {
		return 0, err
	}
	n, gen, ok := s.counts.Get(ctx, clusterID)
	if ok {
		return n, nil
	}
	n, err = t.acc.Count(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	s.counts.Set(ctx, clusterID, gen, n)
	return n, nil
}

// adjustCount moves the stored counter and drops the cached total. Failures
// only leave the counter drifted.
func (s *Service) adjustCount(ctx context.Context, clusterID string, delta int64) {
	if delta != 0 {
		if err := s.clusters.AdjustDocumentCount(ctx, clusterID, delta); err != nil {
			metrics.CounterDriftTotal.Inc()
			s.log(ctx).Warn("Failed to adjust document count",
				zap.String("cluster_id", clusterID),
				zap.Int64("delta", delta),
				zap.Error(err),
			)
		}
	}
	if err := s.counts.Invalidate(ctx, clusterID); err != nil {
		s.log(ctx).Warn("Failed to invalidate document count",
			zap.String("cluster_id", clusterID),
			zap.Error(err),
		)
	}
}

func (s *Service) notify(ctx context.Context, e event.Event) {
	if err := s.publisher.Publish(ctx, event.TopicCluster, e); err != nil {
		s.log(ctx).Warn("Failed to publish event",
			zap.String("type", string(e.Type)),
			zap.String("cluster_id", e.ClusterID),
			zap.Error(err),
		)
	}
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, s.logger)
}
