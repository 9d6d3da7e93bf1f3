package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/clusterdb/internal/domain"
	"github.com/kailas-cloud/clusterdb/internal/domain/access"
	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
	"github.com/kailas-cloud/clusterdb/internal/domain/event"
	logpkg "github.com/kailas-cloud/clusterdb/internal/logger"
	"github.com/kailas-cloud/clusterdb/internal/metrics"
)

// CreateInput is an unvalidated create request.
type CreateInput struct {
	OwnerID     string
	Name        string
	Description string
	Schema      *schema.Definition
	Indexes     []index.Definition
	ReadAccess  string
	WriteAccess string
}

// UpdateInput is an unvalidated partial update. Nil fields stay unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Schema      *schema.Definition
	Indexes     *[]index.Definition
	APIEnabled  *bool
	ReadAccess  *string
	WriteAccess *string
}

// Service is the cluster registry.
type Service struct {
	repo      Repository
	accessors Accessors
	publisher Publisher
	counts    CountInvalidator
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a cluster service.
func New(repo Repository, accessors Accessors, publisher Publisher, counts CountInvalidator, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		accessors: accessors,
		publisher: publisher,
		counts:    counts,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates and registers a new cluster. A slug already used by the
// same owner gets a timestamp suffix. Declared indexes are built best-effort.
func (s *Service) Create(ctx context.Context, in CreateInput) (domcluster.Cluster, error) {
	if in.OwnerID == "" {
		return domcluster.Cluster{}, fmt.Errorf("create cluster: %w", domain.ErrUnauthenticated)
	}
	params, err := createParams(in)
	if err != nil {
		return domcluster.Cluster{}, fmt.Errorf("validate cluster: %w", err)
	}
	now := s.now()
	c, err := domcluster.New(params, now)
	if err != nil {
		return domcluster.Cluster{}, fmt.Errorf("validate cluster: %w", invalid("cluster", err))
	}

	taken, err := s.repo.SlugTaken(ctx, c.OwnerID(), c.Slug())
	if err != nil {
		return domcluster.Cluster{}, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		c = c.WithTimestampSuffix(now)
	}

	c, err = s.repo.Create(ctx, c)
	if err != nil {
		return domcluster.Cluster{}, fmt.Errorf("create cluster: %w", err)
	}

	if len(c.Indexes()) > 0 {
		s.ensureIndexes(ctx, c)
	}
	s.notify(ctx, event.TopicCluster, event.New(event.ClusterCreated, c.ID(), c.OwnerID(), now).
		WithCluster(c.Name(), c.CollectionName()))

	return c, nil
}

// List returns the owner's active clusters, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]domcluster.Cluster, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("list clusters: %w", domain.ErrUnauthenticated)
	}
	cs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	return cs, nil
}

// Get returns a cluster the requester may read.
func (s *Service) Get(ctx context.Context, id, requester string) (domcluster.Cluster, error) {
	return s.Authorize(ctx, id, requester, access.Read)
}

// Authorize loads an active cluster and evaluates the requester against
// its policy for class. Denials never say why.
func (s *Service) Authorize(ctx context.Context, id, requester string, class access.Class) (domcluster.Cluster, error) {
	return s.authorize(ctx, id, access.Request{Requester: requester, Class: class})
}

func (s *Service) authorize(ctx context.Context, id string, req access.Request) (domcluster.Cluster, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return domcluster.Cluster{}, fmt.Errorf("get cluster: %w", err)
	}
	if !c.IsActive() {
		return domcluster.Cluster{}, fmt.Errorf("get cluster: %w", domain.ErrNotFound)
	}
	if !access.Decide(c.Policy(), req) {
		return domcluster.Cluster{}, domain.ErrAccessDenied
	}
	return c, nil
}

// Update applies an owner-only partial update. A schema change evicts the
// cached accessor; an index change re-requests index creation.
func (s *Service) Update(ctx context.Context, id, requester string, in UpdateInput) (domcluster.Cluster, error) {
	c, err := s.authorize(ctx, id, access.Request{Requester: requester, Class: access.Write, OwnerOnly: true})
	if err != nil {
		return domcluster.Cluster{}, err
	}
	p, err := updatePatch(in)
	if err != nil {
		return domcluster.Cluster{}, fmt.Errorf("validate update: %w", err)
	}

	now := s.now()
	updated, changes, err := c.Apply(p, now)
	if err != nil {
		return domcluster.Cluster{}, fmt.Errorf("validate update: %w", invalid("cluster", err))
	}
	if err := s.repo.Update(ctx, updated, changes.Fields); err != nil {
		return domcluster.Cluster{}, fmt.Errorf("update cluster: %w", err)
	}

	if changes.Schema {
		s.accessors.Evict(updated.CollectionName())
	}
	if in.Indexes != nil && len(updated.Indexes()) > 0 {
		s.ensureIndexes(ctx, updated)
	}
	s.notify(ctx, event.TopicCluster, event.New(event.ClusterUpdated, updated.ID(), requester, now))

	return updated, nil
}

// Delete removes an owner's cluster. The record is hidden first so no new
// document operation can open it, then documents, the cached accessor and
// the physical collection go, then the record itself.
func (s *Service) Delete(ctx context.Context, id, requester string) error {
	c, err := s.authorize(ctx, id, access.Request{Requester: requester, Class: access.Write, OwnerOnly: true})
	if err != nil {
		return err
	}
	coll := c.CollectionName()
	log := s.log(ctx).With(zap.String("cluster_id", id), zap.String("collection", coll))

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("deactivate cluster: %w", err)
	}
	acc := s.accessors.Resolve(coll, c.Schema())
	if _, err := acc.DeleteMany(ctx, nil); err != nil {
		// The owner must still see the cluster to retry.
		if rerr := s.repo.SetActive(context.WithoutCancel(ctx), id, true); rerr != nil {
			log.Warn("Failed to reactivate cluster", zap.Error(rerr))
		}
		return fmt.Errorf("delete cluster documents: %w", err)
	}
	s.accessors.Evict(coll)
	if err := acc.Drop(ctx); err != nil {
		log.Warn("Failed to drop cluster collection", zap.Error(err))
	} else {
		s.notify(ctx, event.TopicStorage,
			event.New(event.CollectionDropped, id, requester, s.now()).WithCluster("", coll))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete cluster: %w", err)
	}
	if err := s.counts.Invalidate(ctx, id); err != nil {
		log.Warn("Failed to invalidate document count", zap.Error(err))
	}
	s.notify(ctx, event.TopicCluster, event.New(event.ClusterDeleted, id, requester, s.now()).WithCluster("", coll))
	return nil
}

func (s *Service) ensureIndexes(ctx context.Context, c domcluster.Cluster) {
	acc := s.accessors.Resolve(c.CollectionName(), c.Schema())
	if err := acc.EnsureIndexes(ctx, c.Indexes()); err != nil {
		metrics.IndexBuildFailuresTotal.Inc()
		s.log(ctx).Warn("Failed to create cluster indexes",
			zap.String("cluster_id", c.ID()),
			zap.String("collection", c.CollectionName()),
			zap.Error(err),
		)
	}
}

func (s *Service) notify(ctx context.Context, topic string, e event.Event) {
	if err := s.publisher.Publish(ctx, topic, e); err != nil {
		s.log(ctx).Warn("Failed to publish event",
			zap.String("topic", topic),
			zap.String("type", string(e.Type)),
			zap.String("cluster_id", e.ClusterID),
			zap.Error(err),
		)
	}
}

func createParams(in CreateInput) (domcluster.Params, error) {
	desc, err := schema.Compile(in.Schema)
	if err != nil {
		return domcluster.Params{}, err
	}
	idx, err := index.NewList(in.Indexes)
	if err != nil {
		return domcluster.Params{}, invalid("indexes", err)
	}
	read, err := access.ParseLevel(in.ReadAccess)
	if err != nil {
		return domcluster.Params{}, invalid("readAccess", err)
	}
	write, err := access.ParseLevel(in.WriteAccess)
	if err != nil {
		return domcluster.Params{}, invalid("writeAccess", err)
	}
	return domcluster.Params{
		OwnerID:     in.OwnerID,
		Name:        in.Name,
		Description: in.Description,
		Schema:      desc,
		Indexes:     idx,
		ReadAccess:  read,
		WriteAccess: write,
	}, nil
}

func updatePatch(in UpdateInput) (domcluster.Patch, error) {
	p := domcluster.Patch{
		Name:        in.Name,
		Description: in.Description,
		APIEnabled:  in.APIEnabled,
	}
	if in.Schema != nil {
		desc, err := schema.Compile(in.Schema)
		if err != nil {
			return domcluster.Patch{}, err
		}
		p.Schema = &desc
	}
	if in.Indexes != nil {
		idx, err := index.NewList(*in.Indexes)
		if err != nil {
			return domcluster.Patch{}, invalid("indexes", err)
		}
		p.Indexes = &idx
	}
	if in.ReadAccess != nil {
		l, err := parseExplicitLevel(*in.ReadAccess)
		if err != nil {
			return domcluster.Patch{}, invalid("readAccess", err)
		}
		p.ReadAccess = &l
	}
	if in.WriteAccess != nil {
		l, err := parseExplicitLevel(*in.WriteAccess)
		if err != nil {
			return domcluster.Patch{}, invalid("writeAccess", err)
		}
		p.WriteAccess = &l
	}
	return p, nil
}

// parseExplicitLevel is ParseLevel without the empty-means-private default.
func parseExplicitLevel(raw string) (access.Level, error) {
	if raw == "" {
		return "", errors.New("access level must not be empty")
	}
	return access.ParseLevel(raw)
}

func invalid(field string, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return domain.NewValidationError(field, err.Error())
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, s.logger)
}
