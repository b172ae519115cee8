package lexical

import (
	"math"
	"sort"
	"sync"

	"github.com/docsense/retrieval/internal/domain/search/result"
)

// Index is an in-memory inverted index over document text. Terms map to
// postings of (document id, term frequency); per-document term counts are kept
// for score normalization. Writers are serialized; readers proceed
// concurrently, and a query started after Index or Remove returns observes the
// new state.
type Index struct {
	mu       sync.RWMutex
	postings map[string]map[string]int // term -> doc id -> frequency
	docTerms map[string]int            // doc id -> total term count
}

// New creates an empty lexical index.
func New() *Index {
	return &Index{
		postings: make(map[string]map[string]int),
		docTerms: make(map[string]int),
	}
}

// Index tokenizes text and replaces any prior postings for docID. A document
// whose text normalizes to zero terms is still registered (it simply matches
// no query), never an error.
func (ix *Index) Index(docID, text string) {
	terms := Tokenize(text)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(docID)

	total := 0
	for _, t := range terms {
		p, ok := ix.postings[t]
		if !ok {
			p = make(map[string]int)
			ix.postings[t] = p
		}
		p[docID]++
		total++
	}
	ix.docTerms[docID] = total
}

// Remove purges all postings for docID. Removing an unknown id is a no-op.
func (ix *Index) Remove(docID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(docID)
}

// removeLocked deletes the document's postings, dropping any term whose last
// occurrence it held so no empty posting lists dangle.
func (ix *Index) removeLocked(docID string) {
	if _, ok := ix.docTerms[docID]; !ok {
		return
	}
	for term, p := range ix.postings {
		if _, ok := p[docID]; ok {
			delete(p, docID)
			if len(p) == 0 {
				delete(ix.postings, term)
			}
		}
	}
	delete(ix.docTerms, docID)
}

// Query tokenizes the query and scores matching documents with a TF-IDF
// weight summed over matching terms: tf(t,d)/|d| * log(1 + N/df(t)).
// Results are ordered by score descending, ties broken by ascending document
// id. topK <= 0 returns all matches.
func (ix *Index) Query(query string, topK int) []result.Hit {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := float64(len(ix.docTerms))
	scores := make(map[string]float64)
	for _, t := range terms {
		p, ok := ix.postings[t]
		if !ok {
			continue
		}
		idf := math.Log(1 + n/float64(len(p)))
		for docID, tf := range p {
			scores[docID] += float64(tf) / float64(ix.docTerms[docID]) * idf
		}
	}

	hits := make([]result.Hit, 0, len(scores))
	for docID, score := range scores {
		hits = append(hits, result.Hit{ID: docID, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Contains reports whether docID is registered in the index.
func (ix *Index) Contains(docID string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.docTerms[docID]
	return ok
}

// Size returns the number of indexed documents.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docTerms)
}

// TermCount returns the number of distinct terms in the index.
func (ix *Index) TermCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings)
}
