package result

// Hit is a raw candidate from a single index: a document id and the score that
// index assigned it. Hits are ephemeral plumbing between an index and the
// fusion step.
type Hit struct {
	ID    string
	Score float64
}

// Result is a single fused search hit. Lexical and semantic scores are nil
// when the corresponding index was not consulted for this document; the fused
// score is always present.
type Result struct {
	id       string
	filename string
	lexical  *float64
	semantic *float64
	fused    float64
	tags     map[string]string
	numerics map[string]float64
}

// New creates a search result.
func New(
	id, filename string,
	lexical, semantic *float64,
	fused float64,
	tags map[string]string,
	numerics map[string]float64,
) Result {
	return Result{
		id: id, filename: filename,
		lexical: lexical, semantic: semantic, fused: fused,
		tags: tags, numerics: numerics,
	}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Filename returns the document filename.
func (r *Result) Filename() string { return r.filename }

// LexicalScore returns the full-text relevance score (nil if not computed).
func (r *Result) LexicalScore() *float64 { return r.lexical }

// SemanticScore returns the cosine similarity score (nil if not computed).
func (r *Result) SemanticScore() *float64 { return r.semantic }

// FusedScore returns the final ranking score.
func (r *Result) FusedScore() float64 { return r.fused }

// Tags returns the metadata tag snapshot taken at query time.
func (r *Result) Tags() map[string]string { return r.tags }

// Numerics returns the numeric metadata snapshot taken at query time.
func (r *Result) Numerics() map[string]float64 { return r.numerics }

// Page is one page of an ordered result list.
type Page struct {
	Results  []Result
	Total    int
	Page     int
	PageSize int
	HasMore  bool
}
