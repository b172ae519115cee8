package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
	"github.com/docsense/retrieval/internal/domain/search/filter"
	"github.com/docsense/retrieval/internal/domain/search/mode"
	"github.com/docsense/retrieval/internal/domain/search/request"
	"github.com/docsense/retrieval/internal/domain/search/result"
)

type mockLexical struct {
	hits    []result.Hit
	queries int
	lastK   int
}

func (m *mockLexical) Query(_ string, topK int) []result.Hit {
	m.queries++
	m.lastK = topK
	out := make([]result.Hit, len(m.hits))
	copy(out, m.hits)
	return out
}

type mockSemantic struct {
	hits    []result.Hit
	err     error
	queries int
}

func (m *mockSemantic) Query(_ []float32, _ int) ([]result.Hit, error) {
	m.queries++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]result.Hit, len(m.hits))
	copy(out, m.hits)
	return out, nil
}

type mockRecords struct {
	docs map[string]domdoc.Document
}

func (m *mockRecords) Get(_ context.Context, id string) (domdoc.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func storedDoc(t *testing.T, id string, tags map[string]string, numerics map[string]float64) domdoc.Document {
	t.Helper()
	doc, err := domdoc.New(id, id+".txt", "text of "+id, nil, tags, numerics)
	if err != nil {
		t.Fatalf("New(%s): %v", id, err)
	}
	return doc
}

func mustRequest(t *testing.T, query string, vector []float32, m mode.Mode, f filter.Expression, page, pageSize int) *request.Request {
	t.Helper()
	req, err := request.New(query, vector, m, f, page, pageSize)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func TestSearch_FullTextDispatch(t *testing.T) {
	lex := &mockLexical{hits: []result.Hit{{ID: "a", Score: 1}}}
	sem := &mockSemantic{}
	records := &mockRecords{docs: map[string]domdoc.Document{
		"a": storedDoc(t, "a", nil, nil),
	}}
	svc := New(lex, sem, records, zap.NewNop())

	page, err := svc.Search(context.Background(), mustRequest(t, "q", nil, mode.FullText, filter.Expression{}, 1, 10))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if sem.queries != 0 {
		t.Error("semantic index must not be queried in full_text mode")
	}
	if len(page.Results) != 1 || page.Results[0].ID() != "a" {
		t.Fatalf("unexpected results %+v", page.Results)
	}
	if page.Results[0].Filename() != "a.txt" {
		t.Errorf("filename must be carried into results, got %q", page.Results[0].Filename())
	}
}

func TestSearch_HybridWithoutVectorDegrades(t *testing.T) {
	lex := &mockLexical{hits: []result.Hit{{ID: "a", Score: 1}}}
	sem := &mockSemantic{err: errors.New("must not be called")}
	records := &mockRecords{docs: map[string]domdoc.Document{
		"a": storedDoc(t, "a", nil, nil),
	}}
	svc := New(lex, sem, records, zap.NewNop())

	page, err := svc.Search(context.Background(), mustRequest(t, "q", nil, mode.Hybrid, filter.Expression{}, 1, 10))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if sem.queries != 0 {
		t.Error("hybrid without vector must not touch the semantic index")
	}
	if len(page.Results) != 1 {
		t.Fatalf("expected full-text results, got %+v", page.Results)
	}
	// Lexical-only candidate in hybrid fusion is capped by alpha
	if got := page.Results[0].FusedScore(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected fused 0.5 for lexical-only hybrid hit, got %v", got)
	}
}

func TestSearch_SemanticDimensionMismatchIsValidation(t *testing.T) {
	lex := &mockLexical{}
	sem := &mockSemantic{err: domain.NewDimensionMismatch(384, 3)}
	svc := New(lex, sem, &mockRecords{}, zap.NewNop())

	_, err := svc.Search(context.Background(), mustRequest(t, "", []float32{1, 2, 3}, mode.Semantic, filter.Expression{}, 1, 10))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation wrap, got %v", err)
	}
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch preserved, got %v", err)
	}
}

func TestSearch_FilterBeforeFusion(t *testing.T) {
	// a would top the lexical list but is filtered out; normalization must
	// run over the eligible candidates only, so b normalizes to 1.0.
	lex := &mockLexical{hits: []result.Hit{
		{ID: "a", Score: 3},
		{ID: "b", Score: 2},
		{ID: "c", Score: 1},
	}}
	records := &mockRecords{docs: map[string]domdoc.Document{
		"a": storedDoc(t, "a", map[string]string{"dept": "hr"}, nil),
		"b": storedDoc(t, "b", map[string]string{"dept": "finance"}, nil),
		"c": storedDoc(t, "c", map[string]string{"dept": "finance"}, nil),
	}}
	svc := New(lex, &mockSemantic{}, records, zap.NewNop())

	cond, err := filter.NewMatch("dept", "finance")
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	expr, err := filter.NewExpression([]filter.Condition{cond})
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}

	page, err := svc.Search(context.Background(), mustRequest(t, "q", nil, mode.Hybrid, expr, 1, 10))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Results) != 2 {
		t.Fatalf("expected 2 eligible results, got %+v", page.Results)
	}
	if page.Results[0].ID() != "b" {
		t.Errorf("expected b first, got %q", page.Results[0].ID())
	}
	// b tops the post-filter lexical list: normalized 1.0, fused alpha*1.0
	if got := page.Results[0].FusedScore(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("normalization must ignore filtered-out candidates, fused %v", got)
	}
}

func TestSearch_OrphanedIndexEntryExcluded(t *testing.T) {
	lex := &mockLexical{hits: []result.Hit{
		{ID: "ghost", Score: 5},
		{ID: "real", Score: 1},
	}}
	records := &mockRecords{docs: map[string]domdoc.Document{
		"real": storedDoc(t, "real", nil, nil),
	}}
	svc := New(lex, &mockSemantic{}, records, zap.NewNop())

	page, err := svc.Search(context.Background(), mustRequest(t, "q", nil, mode.FullText, filter.Expression{}, 1, 10))
	if err != nil {
		t.Fatalf("orphaned entry must not fail the query: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].ID() != "real" {
		t.Fatalf("expected only the real document, got %+v", page.Results)
	}
}

func TestSearch_Pagination(t *testing.T) {
	lex := &mockLexical{hits: []result.Hit{
		{ID: "a", Score: 3},
		{ID: "b", Score: 2},
		{ID: "c", Score: 1},
	}}
	records := &mockRecords{docs: map[string]domdoc.Document{
		"a": storedDoc(t, "a", nil, nil),
		"b": storedDoc(t, "b", nil, nil),
		"c": storedDoc(t, "c", nil, nil),
	}}
	svc := New(lex, &mockSemantic{}, records, zap.NewNop())

	page, err := svc.Search(context.Background(), mustRequest(t, "q", nil, mode.FullText, filter.Expression{}, 2, 1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 3 || page.Page != 2 || page.PageSize != 1 {
		t.Errorf("unexpected page meta %+v", page)
	}
	if len(page.Results) != 1 || page.Results[0].ID() != "b" {
		t.Fatalf("expected second-ranked doc on page 2, got %+v", page.Results)
	}
	if !page.HasMore {
		t.Error("expected HasMore on middle page")
	}

	// Page beyond the result set is empty, not an error
	beyond, err := svc.Search(context.Background(), mustRequest(t, "q", nil, mode.FullText, filter.Expression{}, 9, 10))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(beyond.Results) != 0 || beyond.HasMore {
		t.Errorf("expected empty page past the end, got %+v", beyond)
	}
}

func TestSearch_CandidateBudget(t *testing.T) {
	lex := &mockLexical{}
	svc := New(lex, &mockSemantic{}, &mockRecords{}, zap.NewNop()).WithMaxCandidates(50)

	_, err := svc.Search(context.Background(), mustRequest(t, "q", nil, mode.FullText, filter.Expression{}, 1, 10))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if lex.lastK != 40 {
		t.Errorf("expected overfetch 1*10*4=40, got %d", lex.lastK)
	}

	_, err = svc.Search(context.Background(), mustRequest(t, "q", nil, mode.FullText, filter.Expression{}, 5, 10))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if lex.lastK != 50 {
		t.Errorf("expected budget capped at 50, got %d", lex.lastK)
	}
}

func TestSearch_EmptyResultIsNotError(t *testing.T) {
	svc := New(&mockLexical{}, &mockSemantic{}, &mockRecords{}, zap.NewNop())

	page, err := svc.Search(context.Background(), mustRequest(t, "nothing matches", nil, mode.Hybrid, filter.Expression{}, 1, 10))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 0 || len(page.Results) != 0 || page.HasMore {
		t.Errorf("expected empty page, got %+v", page)
	}
}
