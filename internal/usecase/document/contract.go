package document

import (
	"context"

	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
)

// RecordStore is the canonical document storage contract. It is the single
// owner of document content; both indexes are derived from it.
type RecordStore interface {
	Save(ctx context.Context, doc domdoc.Document) (domdoc.Document, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
	Each(ctx context.Context, fn func(doc domdoc.Document) error) error
	Count(ctx context.Context) (int, error)
	Recent(ctx context.Context, limit int) ([]domdoc.Document, error)
	SaveManifest(ctx context.Context, m domain.IndexManifest) error
	LoadManifest(ctx context.Context) (m domain.IndexManifest, ok bool, err error)
}

// LexicalIndex is the inverted index write contract.
type LexicalIndex interface {
	Index(docID, text string)
	Remove(docID string)
	Size() int
}

// SemanticIndex is the vector index write contract.
type SemanticIndex interface {
	Index(docID string, vector []float32) error
	Remove(docID string)
	Size() int
	Dimension() int
}
