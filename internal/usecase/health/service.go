package health

import (
	"context"
	"fmt"
)

// Embedding provider check outcomes.
const (
	EmbeddingOK    = "ok"
	EmbeddingError = "error"
)

// Status is the engine health snapshot returned to operators and dashboards.
// Embedding is empty when no provider is configured.
type Status struct {
	Documents       int    `json:"documents"`
	LexicalDocs     int    `json:"lexical_docs"`
	SemanticVectors int    `json:"semantic_vectors"`
	Dimension       int    `json:"dimension"`
	Embedding       string `json:"embedding,omitempty"`
}

// Degraded reports whether a configured component is failing while the engine
// itself still serves.
func (s Status) Degraded() bool { return s.Embedding == EmbeddingError }

// Service reports engine health.
type Service struct {
	records   RecordCounter
	lexical   IndexStats
	semantic  DimensionedIndexStats
	embedding EmbeddingHealthChecker
}

// New creates a health service.
func New(records RecordCounter, lexical IndexStats, semantic DimensionedIndexStats) *Service {
	return &Service{records: records, lexical: lexical, semantic: semantic}
}

// WithEmbedder attaches an optional embedding provider check.
func (s *Service) WithEmbedder(e EmbeddingHealthChecker) *Service {
	s.embedding = e
	return s
}

// Check returns the current engine status. A store read failure means the
// engine is unhealthy; a failing embedding provider only degrades it, since
// precomputed vectors and full-text search keep working.
func (s *Service) Check(ctx context.Context) (Status, error) {
	count, err := s.records.Count(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("record store unavailable: %w", err)
	}
	st := Status{
		Documents:       count,
		LexicalDocs:     s.lexical.Size(),
		SemanticVectors: s.semantic.Size(),
		Dimension:       s.semantic.Dimension(),
	}
	if s.embedding != nil {
		st.Embedding = EmbeddingOK
		if err := s.embedding.HealthCheck(ctx); err != nil {
			st.Embedding = EmbeddingError
		}
	}
	return st, nil
}
