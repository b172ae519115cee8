package retrieval

import (
	"fmt"

	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
	"github.com/docsense/retrieval/internal/domain/search/filter"
	"github.com/docsense/retrieval/internal/domain/search/mode"
	"github.com/docsense/retrieval/internal/domain/search/request"
	"github.com/docsense/retrieval/internal/domain/search/result"
)

func toInternalDocument(d Document) (domdoc.Document, error) {
	doc, err := domdoc.New(d.ID, d.Filename, d.Text, d.Vector, d.Tags, d.Numerics)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("validate document: %w", err)
	}
	return doc, nil
}

func fromInternalDocument(d domdoc.Document) Document {
	return Document{
		ID:       d.ID(),
		Filename: d.Filename(),
		Text:     d.Text(),
		Vector:   d.Vector(),
		Tags:     d.Tags(),
		Numerics: d.Numerics(),
		SavedAt:  d.SavedAt(),
	}
}

func toInternalRequest(req SearchRequest) (request.Request, error) {
	expr, err := toInternalFilters(req.Filters)
	if err != nil {
		return request.Request{}, err
	}
	r, err := request.New(req.Query, req.Vector, mode.Mode(req.Mode), expr, req.Page, req.PageSize)
	if err != nil {
		return request.Request{}, fmt.Errorf("validate request: %w", err)
	}
	return r, nil
}

func toInternalFilters(conditions []FilterCondition) (filter.Expression, error) {
	out := make([]filter.Condition, 0, len(conditions))
	for _, fc := range conditions {
		c, err := toInternalCondition(fc)
		if err != nil {
			return filter.Expression{}, err
		}
		out = append(out, c)
	}
	expr, err := filter.NewExpression(out)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return expr, nil
}

func toInternalCondition(fc FilterCondition) (filter.Condition, error) {
	kinds := 0
	if fc.Match != "" {
		kinds++
	}
	if len(fc.AnyOf) > 0 {
		kinds++
	}
	if fc.Range != nil {
		kinds++
	}
	if kinds != 1 {
		return filter.Condition{}, fmt.Errorf(
			"%w: filter on %q must have exactly one of Match, AnyOf, or Range",
			domain.ErrValidation, fc.Key,
		)
	}

	var (
		c   filter.Condition
		err error
	)
	switch {
	case fc.Match != "":
		c, err = filter.NewMatch(fc.Key, fc.Match)
	case len(fc.AnyOf) > 0:
		c, err = filter.NewAnyOf(fc.Key, fc.AnyOf)
	default:
		var r filter.Range
		r, err = filter.NewRangeBounds(fc.Range.GT, fc.Range.GTE, fc.Range.LT, fc.Range.LTE)
		if err == nil {
			c, err = filter.NewRange(fc.Key, r)
		}
	}
	if err != nil {
		return filter.Condition{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return c, nil
}

func fromInternalPage(p result.Page) SearchPage {
	results := make([]SearchResult, len(p.Results))
	for i := range p.Results {
		r := &p.Results[i]
		results[i] = SearchResult{
			ID:            r.ID(),
			Filename:      r.Filename(),
			LexicalScore:  r.LexicalScore(),
			SemanticScore: r.SemanticScore(),
			Score:         r.FusedScore(),
			Tags:          r.Tags(),
			Numerics:      r.Numerics(),
		}
	}
	return SearchPage{
		Results:  results,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasMore:  p.HasMore,
	}
}
