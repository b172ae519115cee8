package request

import (
	"fmt"

	"github.com/docsense/retrieval/internal/domain"
	"github.com/docsense/retrieval/internal/domain/search/filter"
	"github.com/docsense/retrieval/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength  = 4096
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Request is a validated search query.
type Request struct {
	query      string
	vector     []float32
	searchMode mode.Mode
	filters    filter.Expression
	page       int
	pageSize   int
}

// Limits bounds request page sizing. Zero fields fall back to the package
// defaults, so the zero value is usable as-is.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// New validates and normalizes search parameters with the default page limits.
// Defaults: mode=hybrid, page=1, page_size=20. Query text is required in
// full_text and hybrid modes; a vector is required in semantic mode. A hybrid
// request without a vector is valid and degrades to full-text retrieval.
func New(
	query string,
	vector []float32,
	m mode.Mode,
	filters filter.Expression,
	page, pageSize int,
) (Request, error) {
	return NewWithLimits(query, vector, m, filters, page, pageSize, Limits{})
}

// NewWithLimits is New with operator-configured page limits.
func NewWithLimits(
	query string,
	vector []float32,
	m mode.Mode,
	filters filter.Expression,
	page, pageSize int,
	limits Limits,
) (Request, error) {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = DefaultPageSize
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = MaxPageSize
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrValidation, m)
	}
	if m.NeedsQuery() && query == "" {
		return Request{}, fmt.Errorf("%w: query is required in %s mode", domain.ErrValidation, m)
	}
	if m.NeedsVector() && len(vector) == 0 {
		return Request{}, fmt.Errorf("%w: query vector is required in %s mode", domain.ErrValidation, m)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = limits.DefaultPageSize
	}
	if pageSize < 1 || pageSize > limits.MaxPageSize {
		return Request{}, fmt.Errorf("%w: page_size must be between 1 and %d", domain.ErrValidation, limits.MaxPageSize)
	}

	return Request{
		query:      query,
		vector:     vector,
		searchMode: m,
		filters:    filters,
		page:       page,
		pageSize:   pageSize,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Vector returns the query embedding (nil when none was supplied).
func (r *Request) Vector() []float32 { return r.vector }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filters returns the metadata filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// Page returns the 1-based result page.
func (r *Request) Page() int { return r.page }

// PageSize returns the number of results per page.
func (r *Request) PageSize() int { return r.pageSize }

// HasVector reports whether a query vector was supplied.
func (r *Request) HasVector() bool { return len(r.vector) > 0 }
