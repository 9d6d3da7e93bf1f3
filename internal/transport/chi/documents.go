package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/domain/query"
	"github.com/kailas-cloud/clusterdb/internal/transport/identity"
)

type documentEnvelope struct {
	Message  string          `json:"message,omitempty"`
	Document domdoc.Document `json:"document"`
}

type deleteManyResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

// CreateDocument handles POST /api/db/clusters/{clusterId}/data.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	body, err := s.decodeObject(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	doc, err := s.documents.Create(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()), body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentEnvelope{Message: "Document created successfully", Document: doc})
}

// ListDocuments handles GET /api/db/clusters/{clusterId}/data.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	page, err := s.documents.List(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()),
		query.ParamsFromValues(r.URL.Query()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetDocument handles GET /api/db/clusters/{clusterId}/data/{docId}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()),
		chi.URLParam(r, "docId"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentEnvelope{Document: doc})
}

// UpdateDocument handles PUT /api/db/clusters/{clusterId}/data/{docId}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	body, err := s.decodeObject(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	doc, err := s.documents.Update(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()),
		chi.URLParam(r, "docId"), body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentEnvelope{Message: "Document updated successfully", Document: doc})
}

// PatchDocument handles PATCH /api/db/clusters/{clusterId}/data/{docId}.
// Nested objects merge and null values remove optional fields.
func (s *Server) PatchDocument(w http.ResponseWriter, r *http.Request) {
	body, err := s.decodeObject(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	doc, err := s.documents.Patch(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()),
		chi.URLParam(r, "docId"), body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentEnvelope{Message: "Document updated successfully", Document: doc})
}

// DeleteDocument handles DELETE /api/db/clusters/{clusterId}/data/{docId}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	err := s.documents.Delete(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()),
		chi.URLParam(r, "docId"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Document deleted successfully"})
}

// DeleteDocuments handles DELETE /api/db/clusters/{clusterId}/data.
// The same filter parameters as ListDocuments select what is removed.
func (s *Server) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	n, err := s.documents.DeleteMany(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()),
		query.ParamsFromValues(r.URL.Query()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteManyResponse{Message: "Documents deleted successfully", DeletedCount: n})
}

// CountDocuments handles GET /api/db/clusters/{clusterId}/count.
func (s *Server) CountDocuments(w http.ResponseWriter, r *http.Request) {
	n, err := s.documents.Count(r.Context(), chi.URLParam(r, "clusterId"), identity.UserID(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}
