package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/clusterdb/internal/domain"
	"github.com/kailas-cloud/clusterdb/internal/domain/access"
	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/domain/query"
	logpkg "github.com/kailas-cloud/clusterdb/internal/logger"
	clusteruc "github.com/kailas-cloud/clusterdb/internal/usecase/cluster"
	documentuc "github.com/kailas-cloud/clusterdb/internal/usecase/document"
	healthuc "github.com/kailas-cloud/clusterdb/internal/usecase/health"
)

// ClusterService is the cluster registry as seen by the HTTP layer.
type ClusterService interface {
	Create(ctx context.Context, in clusteruc.CreateInput) (domcluster.Cluster, error)
	List(ctx context.Context, ownerID string) ([]domcluster.Cluster, error)
	Get(ctx context.Context, id, requester string) (domcluster.Cluster, error)
	Update(ctx context.Context, id, requester string, in clusteruc.UpdateInput) (domcluster.Cluster, error)
	Delete(ctx context.Context, id, requester string) error
}

// DocumentService is the document gateway as seen by the HTTP layer.
type DocumentService interface {
	Create(ctx context.Context, clusterID, requester string, body map[string]any) (domdoc.Document, error)
	List(ctx context.Context, clusterID, requester string, params query.Params) (documentuc.Page, error)
	Get(ctx context.Context, clusterID, requester, docID string) (domdoc.Document, error)
	Update(ctx context.Context, clusterID, requester, docID string, body map[string]any) (domdoc.Document, error)
	Patch(ctx context.Context, clusterID, requester, docID string, body map[string]any) (domdoc.Document, error)
	Delete(ctx context.Context, clusterID, requester, docID string) error
	DeleteMany(ctx context.Context, clusterID, requester string, params query.Params) (int64, error)
	Count(ctx context.Context, clusterID, requester string) (int64, error)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// statusClientClosedRequest is reported when the caller went away mid-request.
const statusClientClosedRequest = 499

var errBodyTooLarge = errors.New("request body exceeds the maximum allowed size")

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the cluster and document HTTP API.
type Server struct {
	clusters      ClusterService
	documents     DocumentService
	health        HealthChecker
	logger        *zap.Logger
	validate      *validator.Validate
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	clusters ClusterService,
	documents DocumentService,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		clusters:     clusters,
		documents:    documents,
		health:       health,
		logger:       logger,
		validate:     newValidator(),
		maxBodyBytes: 10 << 20,
	}
	s.errorHandlers = []errorHandler{
		abortedHandler,
		bodyTooLargeHandler,
		validationHandler,
		sentinelHandler(domain.ErrInvalidReference, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized),
		sentinelHandler(domain.ErrAccessDenied, http.StatusForbidden),
		sentinelHandler(domain.ErrAPIDisabled, http.StatusForbidden),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrDuplicateName, http.StatusConflict),
		sentinelHandler(domain.ErrStorageUnavailable, http.StatusServiceUnavailable),
	}
	return s
}

// WithMaxBodyBytes caps request body size. Non-positive values keep the default.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/db/clusters", func(r chi.Router) {
		r.Post("/", s.CreateCluster)
		r.Get("/", s.ListClusters)

		r.Route("/{clusterId}", func(r chi.Router) {
			r.Get("/", s.GetCluster)
			r.Put("/", s.UpdateCluster)
			r.Delete("/", s.DeleteCluster)
			r.Get("/schema", s.GetClusterSchema)
			r.Get("/count", s.CountDocuments)

			r.Route("/data", func(r chi.Router) {
				r.Post("/", s.CreateDocument)
				r.Get("/", s.ListDocuments)
				r.Delete("/", s.DeleteDocuments)
				r.Get("/{docId}", s.GetDocument)
				r.Put("/{docId}", s.UpdateDocument)
				r.Patch("/{docId}", s.PatchDocument)
				r.Delete("/{docId}", s.DeleteDocument)
			})
		})
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrDuplicateName,
		domain.ErrNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrInvalidReference,
		domain.ErrAccessDenied,
		domain.ErrAPIDisabled,
		domain.ErrStorageUnavailable,
		domain.ErrUnauthenticated,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	code := domain.Tag(sentinel)
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports per-field problems alongside the generic message.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	resp := errorResponse{Code: domain.TagValidation, Message: msg}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Message = verr.Error()
		resp.Details = verr.Fields
	}
	writeJSON(w, http.StatusBadRequest, resp)
	return true
}

func abortedHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, context.Canceled) {
		return false
	}
	writeError(w, statusClientClosedRequest, "RequestAborted", "the request was cancelled by the client")
	return true
}

func bodyTooLargeHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, errBodyTooLarge) {
		return false
	}
	writeError(w, http.StatusRequestEntityTooLarge, "PayloadTooLarge", errBodyTooLarge.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context()))))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Debug("request rejected",
				zap.String("code", domain.Tag(err)),
				zap.Stringer("class", access.ClassForMethod(r.Method)),
				zap.Error(err),
			)
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, domain.TagInternal, "internal error")
}

// decodeBody reads a JSON body into v under the configured size limit.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// decodeObject reads a JSON object body for document writes.
func (s *Server) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var raw any
	if err := s.decodeBody(w, r, &raw); err != nil {
		return nil, err
	}
	body, ok := raw.(map[string]any)
	if !ok {
		return nil, domain.NewValidationError("body", "must be a JSON object")
	}
	return body, nil
}
