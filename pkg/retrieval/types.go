package retrieval

// SearchMode controls the retrieval algorithm.
type SearchMode string

// Search mode constants.
const (
	ModeHybrid   SearchMode = "hybrid"
	ModeFullText SearchMode = "full_text"
	ModeSemantic SearchMode = "semantic"
)

// Document is a document to index. Vector may be nil: the document is then
// reachable through full-text retrieval only.
type Document struct {
	ID       string
	Filename string
	Text     string
	Vector   []float32
	Tags     map[string]string
	Numerics map[string]float64
	SavedAt  int64
}

// SearchRequest describes one retrieval query.
type SearchRequest struct {
	Query    string
	Vector   []float32
	Mode     SearchMode
	Filters  []FilterCondition
	Page     int
	PageSize int
}

// FilterCondition is a single metadata filter clause. Exactly one of Match,
// AnyOf, or Range must be set.
type FilterCondition struct {
	Key   string
	Match string
	AnyOf []string
	Range *RangeFilter
}

// RangeFilter defines numeric range boundaries. Nil bounds are open.
type RangeFilter struct {
	GT  *float64
	GTE *float64
	LT  *float64
	LTE *float64
}

// SearchResult is a single search hit with per-signal scores.
type SearchResult struct {
	ID            string
	Filename      string
	LexicalScore  *float64
	SemanticScore *float64
	Score         float64
	Tags          map[string]string
	Numerics      map[string]float64
}

// SearchPage is one page of ranked results.
type SearchPage struct {
	Results  []SearchResult
	Total    int
	Page     int
	PageSize int
	HasMore  bool
}

// BatchError reports a failed item in a batch save.
type BatchError struct {
	ID  string
	Err error
}

// BatchResult is the outcome of a batch save.
type BatchResult struct {
	Saved  int
	Errors []BatchError
}

// EngineStats is a snapshot of index sizing.
type EngineStats struct {
	Documents       int
	LexicalDocs     int
	SemanticVectors int
	Dimension       int
}
