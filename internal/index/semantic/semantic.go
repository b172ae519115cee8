package semantic

import (
	"math"
	"sort"
	"sync"

	"github.com/docsense/retrieval/internal/domain"
	"github.com/docsense/retrieval/internal/domain/search/result"
)

// Index is an in-memory vector index with a dimension fixed at creation.
// Similarity queries scan all stored vectors and keep the top-k by cosine
// similarity; the scan is bounded by the index size, the returned set by topK.
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors map[string][]float32
}

// New creates an empty semantic index for vectors of the given dimension.
func New(dim int) *Index {
	return &Index{
		dim:     dim,
		vectors: make(map[string][]float32),
	}
}

// Index stores the vector for docID, replacing any prior vector. A vector of
// mismatched dimension fails with a dimension mismatch error and leaves the
// index unchanged.
func (ix *Index) Index(docID string, vector []float32) error {
	if len(vector) != ix.dim {
		return domain.NewDimensionMismatch(ix.dim, len(vector))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	v := make([]float32, len(vector))
	copy(v, vector)
	ix.vectors[docID] = v
	return nil
}

// Remove deletes the vector for docID. Removing an unknown id is a no-op.
func (ix *Index) Remove(docID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.vectors, docID)
}

// Query returns up to topK documents ordered by cosine similarity to the
// query vector (descending, range [-1, 1]), ties broken by ascending document
// id.
func (ix *Index) Query(vector []float32, topK int) ([]result.Hit, error) {
	if len(vector) != ix.dim {
		return nil, domain.NewDimensionMismatch(ix.dim, len(vector))
	}
	if topK <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := make([]result.Hit, 0, len(ix.vectors))
	for docID, v := range ix.vectors {
		hits = append(hits, result.Hit{ID: docID, Score: Cosine(vector, v)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Contains reports whether docID has a stored vector.
func (ix *Index) Contains(docID string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.vectors[docID]
	return ok
}

// Size returns the number of stored vectors.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Dimension returns the fixed vector dimension.
func (ix *Index) Dimension() int { return ix.dim }

// Cosine computes cosine similarity between two equal-length vectors.
// A zero vector has similarity 0 to everything.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
