package chi

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/kailas-cloud/clusterdb/internal/domain"
	"github.com/kailas-cloud/clusterdb/internal/domain/access"
	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
	"github.com/kailas-cloud/clusterdb/internal/transport/identity"
	clusteruc "github.com/kailas-cloud/clusterdb/internal/usecase/cluster"
)

type createClusterRequest struct {
	Name        string             `json:"name" validate:"required,max=100"`
	Description string             `json:"description" validate:"max=500"`
	Schema      *schema.Definition `json:"schema"`
	Indexes     []index.Definition `json:"indexes" validate:"omitempty,dive"`
	ReadAccess  string             `json:"readAccess" validate:"omitempty,oneof=public private authenticated"`
	WriteAccess string             `json:"writeAccess" validate:"omitempty,oneof=public private authenticated"`
}

type updateClusterRequest struct {
	Name        *string             `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string             `json:"description" validate:"omitnil,max=500"`
	Schema      *schema.Definition  `json:"schema"`
	Indexes     *[]index.Definition `json:"indexes"`
	APIEnabled  *bool               `json:"apiEnabled"`
	ReadAccess  *string             `json:"readAccess" validate:"omitnil,oneof=public private authenticated"`
	WriteAccess *string             `json:"writeAccess" validate:"omitnil,oneof=public private authenticated"`
}

type clusterSummary struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Slug           string       `json:"slug"`
	Description    string       `json:"description"`
	CollectionName string       `json:"collectionName"`
	APIEnabled     bool         `json:"apiEnabled"`
	ReadAccess     access.Level `json:"readAccess"`
	WriteAccess    access.Level `json:"writeAccess"`
	DocumentCount  int64        `json:"documentCount"`
	APIEndpoint    string       `json:"apiEndpoint"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

type clusterDetail struct {
	clusterSummary
	Schema  schema.Definition  `json:"schema"`
	Indexes []index.Definition `json:"indexes"`
}

type clusterEnvelope struct {
	Message string `json:"message,omitempty"`
	Cluster any    `json:"cluster"`
}

type clusterListResponse struct {
	Clusters []clusterSummary `json:"clusters"`
	Count    int              `json:"count"`
}

// CreateCluster handles POST /api/db/clusters.
func (s *Server) CreateCluster(w http.ResponseWriter, r *http.Request) {
	requester := identity.UserID(r.Context())
	if requester == "" {
		s.handleDomainError(w, r, domain.ErrUnauthenticated)
		return
	}

	var req createClusterRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.validateRequest(req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	c, err := s.clusters.Create(r.Context(), clusteruc.CreateInput{
		OwnerID:     requester,
		Name:        req.Name,
		Description: req.Description,
		Schema:      req.Schema,
		Indexes:     req.Indexes,
		ReadAccess:  req.ReadAccess,
		WriteAccess: req.WriteAccess,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, clusterEnvelope{
		Message: "Cluster created successfully",
		Cluster: summaryOf(c),
	})
}

// ListClusters handles GET /api/db/clusters.
func (s *Server) ListClusters(w http.ResponseWriter, r *http.Request) {
	requester := identity.UserID(r.Context())
	if requester == "" {
		s.handleDomainError(w, r, domain.ErrUnauthenticated)
		return
	}

	cs, err := s.clusters.List(r.Context(), requester)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, clusterListResponse{
		Clusters: lo.Map(cs, func(c domcluster.Cluster, _ int) clusterSummary { return summaryOf(c) }),
		Count:    len(cs),
	})
}

// GetCluster handles GET /api/db/clusters/{clusterId}.
func (s *Server) GetCluster(w http.ResponseWriter, r *http.Request) {
	c, err := s.clusters.Get(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clusterEnvelope{Cluster: detailOf(c)})
}

// GetClusterSchema handles GET /api/db/clusters/{clusterId}/schema.
func (s *Server) GetClusterSchema(w http.ResponseWriter, r *http.Request) {
	c, err := s.clusters.Get(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Schema().JSONSchema(c.Name()))
}

// UpdateCluster handles PUT /api/db/clusters/{clusterId}.
func (s *Server) UpdateCluster(w http.ResponseWriter, r *http.Request) {
	var req updateClusterRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.validateRequest(req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	c, err := s.clusters.Update(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()),
		clusteruc.UpdateInput{
			Name:        req.Name,
			Description: req.Description,
			Schema:      req.Schema,
			Indexes:     req.Indexes,
			APIEnabled:  req.APIEnabled,
			ReadAccess:  req.ReadAccess,
			WriteAccess: req.WriteAccess,
		})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, clusterEnvelope{
		Message: "Cluster updated successfully",
		Cluster: summaryOf(c),
	})
}

// DeleteCluster handles DELETE /api/db/clusters/{clusterId}.
func (s *Server) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	if err := s.clusters.Delete(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context())); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cluster deleted successfully"})
}

func summaryOf(c domcluster.Cluster) clusterSummary {
	return clusterSummary{
		ID:             c.ID(),
		Name:           c.Name(),
		Slug:           c.Slug(),
		Description:    c.Description(),
		CollectionName: c.CollectionName(),
		APIEnabled:     c.APIEnabled(),
		ReadAccess:     c.ReadAccess(),
		WriteAccess:    c.WriteAccess(),
		DocumentCount:  c.DocumentCount(),
		APIEndpoint:    "/api/db/clusters/" + c.ID() + "/data",
		CreatedAt:      c.CreatedAt(),
		UpdatedAt:      c.UpdatedAt(),
	}
}

func detailOf(c domcluster.Cluster) clusterDetail {
	return clusterDetail{
		clusterSummary: summaryOf(c),
		Schema:         c.Schema().Definition(),
		Indexes:        lo.Map(c.Indexes(), func(ix index.Spec, _ int) index.Definition { return ix.Definition() }),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest turns struct tag failures into a ValidationError keyed by JSON field.
func (s *Server) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return domain.NewValidationError("body", err.Error())
	}
	verr := &domain.ValidationError{}
	for _, fe := range fes {
		verr.Add(fe.Field(), problemFor(fe))
	}
	return verr
}

func problemFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
