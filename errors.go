package clusterdb

import "github.com/kailas-cloud/clusterdb/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation         = domain.ErrValidation
	ErrDuplicateName      = domain.ErrDuplicateName
	ErrNotFound           = domain.ErrNotFound
	ErrDocumentNotFound   = domain.ErrDocumentNotFound
	ErrInvalidReference   = domain.ErrInvalidReference
	ErrAccessDenied       = domain.ErrAccessDenied
	ErrAPIDisabled        = domain.ErrAPIDisabled
	ErrStorageUnavailable = domain.ErrStorageUnavailable
	ErrUnauthenticated    = domain.ErrUnauthenticated
)

// ValidationError carries per-field problems. Use errors.As() to inspect it.
type ValidationError = domain.ValidationError

// ErrorTag returns the stable taxonomy tag of err, such as "NotFound" or
// "ApiDisabled". Errors outside the taxonomy report "InternalError".
func ErrorTag(err error) string { return domain.Tag(err) }
