package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/clusterdb/internal/config"
	dbMongo "github.com/kailas-cloud/clusterdb/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/clusterdb/internal/db/redis"
	logpkg "github.com/kailas-cloud/clusterdb/internal/logger"
	"github.com/kailas-cloud/clusterdb/internal/metrics"
	"github.com/kailas-cloud/clusterdb/internal/repository/accessor"
	clusterrepo "github.com/kailas-cloud/clusterdb/internal/repository/cluster"
	"github.com/kailas-cloud/clusterdb/internal/repository/countcache"
	documentrepo "github.com/kailas-cloud/clusterdb/internal/repository/document"
	"github.com/kailas-cloud/clusterdb/internal/repository/events"
	chiTransport "github.com/kailas-cloud/clusterdb/internal/transport/chi"
	"github.com/kailas-cloud/clusterdb/internal/transport/identity"
	clusteruc "github.com/kailas-cloud/clusterdb/internal/usecase/cluster"
	documentuc "github.com/kailas-cloud/clusterdb/internal/usecase/document"
	healthuc "github.com/kailas-cloud/clusterdb/internal/usecase/health"
	"github.com/kailas-cloud/clusterdb/internal/version"
)

func main() {
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting clusterdb",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("redis_enabled", cfg.Redis.Enabled()),
		zap.Bool("token_lookup", cfg.Auth.ServiceURL != ""),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("clusterdb stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

// backends holds the wired stores and the release hooks run on shutdown.
type backends struct {
	mongo     *dbMongo.Store
	counts    documentuc.CountCache
	publisher documentuc.Publisher
	// Left as a nil interface when Redis is off so health skips it.
	redis   healthuc.Pinger
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends connects the document store (required) and Redis (optional).
// Without Redis the count cache and event publisher are noops.
func openBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backends, error) {
	b := &backends{counts: countcache.Noop{}, publisher: events.Noop{}}

	mongoStore, err := dbMongo.NewStore(ctx, dbMongo.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ReadinessTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("document store not ready: %w", err)
	}
	b.mongo = mongoStore
	b.closers = append(b.closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoStore.Close(closeCtx); err != nil {
			logger.Warn("Error closing document store", zap.Error(err))
		}
	})
	logger.Info("Connected to document store", zap.String("database", mongoStore.Database()))

	if !cfg.Redis.Enabled() {
		return b, nil
	}

	redisStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		b.close()
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	b.closers = append(b.closers, redisStore.Close)
	if err := redisStore.WaitForReady(ctx, cfg.Redis.ReadinessTimeout); err != nil {
		b.close()
		return nil, err
	}
	logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))

	b.counts = countcache.New(redisStore, cfg.Cache.CountTTL, metrics.CountCacheTotal, logger)
	b.publisher = events.New(redisStore, events.Config{
		StreamPrefix: cfg.Events.StreamPrefix,
		MaxLen:       cfg.Events.MaxLen,
		Service:      cfg.Events.Service,
	}, metrics.EventsPublishedTotal)
	b.redis = redisStore
	return b, nil
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	metrics.RegisterEngineMetrics()

	clusterRepo := clusterrepo.New(b.mongo, cfg.Mongo.ClustersCollection)
	if err := clusterRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to ensure cluster registry indexes", zap.Error(err))
	}
	accessors := accessor.New(documentrepo.New(b.mongo))

	clusterSvc := clusteruc.New(clusterRepo, accessors, b.publisher, b.counts, logger)
	documentSvc := documentuc.New(clusterRepo, accessors, b.publisher, b.counts, logger).
		WithPagination(cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize)
	healthSvc := healthuc.New(b.mongo, b.redis)

	var resolver chiTransport.TokenResolver
	if cfg.Auth.ServiceURL != "" {
		resolver = identity.New(cfg.Auth.ServiceURL, cfg.Auth.Timeout)
	}

	api := chiTransport.NewServer(clusterSvc, documentSvc, healthSvc, logger).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      newRouter(api, resolver, cfg.Auth.IdentityHeader, logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return serve(ctx, srv, cfg.HTTP.ShutdownTimeout, logger)
}

// serve runs srv until ctx is cancelled, then drains it within grace.
func serve(ctx context.Context, srv *http.Server, grace time.Duration, logger *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
