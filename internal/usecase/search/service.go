package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
	"github.com/docsense/retrieval/internal/domain/search/mode"
	"github.com/docsense/retrieval/internal/domain/search/request"
	"github.com/docsense/retrieval/internal/domain/search/result"
	"github.com/docsense/retrieval/internal/metrics"
)

// Candidate retrieval defaults.
const (
	// DefaultAlpha is the hybrid fusion weight for the lexical side.
	DefaultAlpha = 0.5
	// candidateOverfetch compensates for candidates the metadata filter drops:
	// each index is asked for this multiple of the requested page window.
	candidateOverfetch = 4
	// DefaultMaxCandidates bounds per-index candidate retrieval.
	DefaultMaxCandidates = 500
)

// Service is the query coordinator: it validates nothing itself (the request
// value object already did), dispatches to the index(es) the mode requires,
// applies the metadata filter before fusion so scores only reflect eligible
// documents, fuses, and paginates.
type Service struct {
	lexical       LexicalSearcher
	semantic      SemanticSearcher
	records       RecordReader
	alpha         float64
	maxCandidates int
	logger        *zap.Logger
}

// New creates a search service with the default fusion weight.
func New(lexical LexicalSearcher, semantic SemanticSearcher, records RecordReader, logger *zap.Logger) *Service {
	return &Service{
		lexical:       lexical,
		semantic:      semantic,
		records:       records,
		alpha:         DefaultAlpha,
		maxCandidates: DefaultMaxCandidates,
		logger:        logger,
	}
}

// WithAlpha sets the hybrid fusion weight for the lexical side (clamped to [0,1]).
func (s *Service) WithAlpha(alpha float64) *Service {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	s.alpha = alpha
	return s
}

// WithMaxCandidates sets the per-index candidate retrieval bound.
func (s *Service) WithMaxCandidates(n int) *Service {
	if n > 0 {
		s.maxCandidates = n
	}
	return s
}

// Search executes a search request. An empty result list is a normal outcome,
// not an error.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	start := time.Now()
	page, err := s.search(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchDuration.WithLabelValues(string(req.Mode())).Observe(time.Since(start).Seconds())
	metrics.SearchesTotal.WithLabelValues(string(req.Mode()), status).Inc()
	return page, err
}

func (s *Service) search(ctx context.Context, req *request.Request) (result.Page, error) {
	topK := s.candidateBudget(req)

	var (
		lexHits, semHits []result.Hit
		err              error
	)
	switch req.Mode() {
	case mode.FullText:
		lexHits = s.lexical.Query(req.Query(), topK)
	case mode.Semantic:
		semHits, err = s.semantic.Query(req.Vector(), topK)
	case mode.Hybrid:
		lexHits = s.lexical.Query(req.Query(), topK)
		if req.HasVector() {
			// Without a vector the hybrid request degrades to full-text only.
			semHits, err = s.semantic.Query(req.Vector(), topK)
		}
	default:
		return result.Page{}, fmt.Errorf("%w: unsupported search mode %q", domain.ErrValidation, req.Mode())
	}
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return result.Page{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		return result.Page{}, fmt.Errorf("semantic query: %w", err)
	}

	eligible, err := s.filterCandidates(ctx, req, lexHits, semHits)
	if err != nil {
		return result.Page{}, err
	}
	lexHits = keepEligible(lexHits, eligible)
	semHits = keepEligible(semHits, eligible)

	fused := fuse(req.Mode(), lexHits, semHits, s.alpha)

	return paginate(fused, eligible, req), nil
}

// candidateBudget bounds per-index retrieval: enough to fill the requested
// page after filtering, capped at maxCandidates.
func (s *Service) candidateBudget(req *request.Request) int {
	k := req.Page() * req.PageSize() * candidateOverfetch
	if k > s.maxCandidates {
		k = s.maxCandidates
	}
	return k
}

// filterCandidates resolves the union of candidate ids against the record
// store and applies the metadata filter. An index entry without a stored
// record is an integrity violation: it is logged and excluded from results
// rather than failing the query.
func (s *Service) filterCandidates(
	ctx context.Context, req *request.Request, lists ...[]result.Hit,
) (map[string]domdoc.Document, error) {
	eligible := make(map[string]domdoc.Document)
	seen := make(map[string]bool)

	for _, hits := range lists {
		for _, h := range hits {
			if seen[h.ID] {
				continue
			}
			seen[h.ID] = true

			doc, err := s.records.Get(ctx, h.ID)
			if err != nil {
				if errors.Is(err, domain.ErrDocumentNotFound) {
					s.logger.Error("orphaned index entry excluded from results",
						zap.String("doc_id", h.ID),
					)
					continue
				}
				return nil, fmt.Errorf("resolve candidate %q: %w", h.ID, err)
			}
			if !req.Filters().Matches(doc.Tags(), doc.Numerics()) {
				continue
			}
			eligible[h.ID] = doc
		}
	}
	return eligible, nil
}

func keepEligible(hits []result.Hit, eligible map[string]domdoc.Document) []result.Hit {
	kept := hits[:0]
	for _, h := range hits {
		if _, ok := eligible[h.ID]; ok {
			kept = append(kept, h)
		}
	}
	return kept
}

func paginate(fused []fusedHit, docs map[string]domdoc.Document, req *request.Request) result.Page {
	total := len(fused)
	start := (req.Page() - 1) * req.PageSize()
	end := start + req.PageSize()
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	results := make([]result.Result, 0, end-start)
	for _, f := range fused[start:end] {
		doc := docs[f.id]
		results = append(results, result.New(
			f.id, doc.Filename(), f.lexical, f.semantic, f.score,
			doc.Tags(), doc.Numerics(),
		))
	}

	return result.Page{
		Results:  results,
		Total:    total,
		Page:     req.Page(),
		PageSize: req.PageSize(),
		HasMore:  end < total,
	}
}
