package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses full-text and semantic results into one ranking.
	Hybrid Mode = "hybrid"
	// FullText matches by normalized terms only.
	FullText Mode = "full_text"
	// Semantic matches by embedding similarity only.
	Semantic Mode = "semantic"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == FullText || m == Semantic
}

// NeedsQuery reports whether the mode requires non-empty query text.
func (m Mode) NeedsQuery() bool {
	return m == FullText || m == Hybrid
}

// NeedsVector reports whether the mode requires a query vector.
// Hybrid is excluded: without a vector it degrades to full-text only.
func (m Mode) NeedsVector() bool {
	return m == Semantic
}
