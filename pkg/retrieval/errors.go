package retrieval

import "github.com/docsense/retrieval/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation        = domain.ErrValidation
	ErrDocumentNotFound  = domain.ErrDocumentNotFound
	ErrDimensionMismatch = domain.ErrDimensionMismatch
	ErrStorageCorrupt    = domain.ErrStorageCorrupt
)
