package search

import (
	"context"

	domdoc "github.com/docsense/retrieval/internal/domain/document"
	"github.com/docsense/retrieval/internal/domain/search/result"
)

// LexicalSearcher is the inverted index read contract.
type LexicalSearcher interface {
	Query(query string, topK int) []result.Hit
}

// SemanticSearcher is the vector index read contract.
type SemanticSearcher interface {
	Query(vector []float32, topK int) ([]result.Hit, error)
}

// RecordReader resolves candidate ids to stored records for filtering and
// metadata snapshots.
type RecordReader interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
}
