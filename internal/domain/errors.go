package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation signals a malformed schema, index list or document body.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateName signals a slug or collection name collision.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrNotFound signals a missing cluster.
	ErrNotFound = errors.New("cluster not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidReference signals a structurally invalid document identifier.
	ErrInvalidReference = errors.New("invalid document id")
	// ErrAccessDenied signals a failed policy evaluation.
	ErrAccessDenied = errors.New("access denied")
	// ErrAPIDisabled signals that the cluster API was switched off by its owner.
	ErrAPIDisabled = errors.New("api disabled for this cluster")
	// ErrStorageUnavailable signals that the backing store cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUnauthenticated signals an operation that needs a resolved identity.
	ErrUnauthenticated = errors.New("authentication required")
)

// Stable taxonomy tags exposed to callers.
const (
	TagValidation         = "ValidationError"
	TagDuplicateName      = "DuplicateName"
	TagNotFound           = "NotFound"
	TagInvalidReference   = "InvalidReference"
	TagAccessDenied       = "AccessDenied"
	TagAPIDisabled        = "ApiDisabled"
	TagStorageUnavailable = "StorageUnavailable"
	TagUnauthenticated    = "Unauthenticated"
	TagInternal           = "InternalError"
)

var tags = []struct {
	err error
	tag string
}{
	{ErrValidation, TagValidation},
	{ErrDuplicateName, TagDuplicateName},
	{ErrNotFound, TagNotFound},
	{ErrDocumentNotFound, TagNotFound},
	{ErrInvalidReference, TagInvalidReference},
	{ErrAccessDenied, TagAccessDenied},
	{ErrAPIDisabled, TagAPIDisabled},
	{ErrStorageUnavailable, TagStorageUnavailable},
	{ErrUnauthenticated, TagUnauthenticated},
}

// Tag maps an error chain to its taxonomy tag. Unknown errors are internal.
func Tag(err error) string {
	for _, t := range tags {
		if errors.Is(err, t.err) {
			return t.tag
		}
	}
	return TagInternal
}

// ValidationError carries per-field problems and unwraps to ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, problem string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: problem}}
}

// Add records a problem for a field. The first problem per field wins.
func (e *ValidationError) Add(field, problem string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = problem
	}
}

// Empty reports whether no problems were recorded.
func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// OrNil returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
