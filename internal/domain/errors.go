package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed request (missing required field,
	// out-of-range pagination). The request is rejected, nothing is processed.
	ErrValidation = errors.New("validation failed")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDimensionMismatch signals a vector whose length disagrees with the
	// index's fixed dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingNotConfigured signals a request that needs a query vector
	// when no embedding provider is available to derive one.
	ErrEmbeddingNotConfigured = errors.New("embedding provider not configured")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStorageCorrupt signals an unreadable stored record.
	ErrStorageCorrupt = errors.New("storage corrupt")
)

// DimensionMismatchError wraps ErrDimensionMismatch with both dimensions.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: index dimension is %d, vector has %d",
		ErrDimensionMismatch.Error(), e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(want, got int) error {
	return &DimensionMismatchError{Want: want, Got: got}
}
