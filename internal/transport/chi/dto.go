package chi

import (
	"fmt"

	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
	"github.com/docsense/retrieval/internal/domain/search/filter"
	"github.com/docsense/retrieval/internal/domain/search/result"
)

// searchRequestDTO is the POST /search body.
type searchRequestDTO struct {
	Query      string      `json:"query"`
	SearchType string      `json:"search_type"`
	Vector     []float32   `json:"vector,omitempty"`
	Filters    []filterDTO `json:"filters,omitempty"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}

// filterDTO is one metadata filter clause. Exactly one of match, any_of, or a
// range boundary set must be present.
type filterDTO struct {
	Field string   `json:"field"`
	Match string   `json:"match,omitempty"`
	AnyOf []string `json:"any_of,omitempty"`
	GT    *float64 `json:"gt,omitempty"`
	GTE   *float64 `json:"gte,omitempty"`
	LT    *float64 `json:"lt,omitempty"`
	LTE   *float64 `json:"lte,omitempty"`
}

type searchResponseDTO struct {
	Results       []resultDTO `json:"results"`
	TotalEstimate int         `json:"total_estimate"`
	Page          int         `json:"page"`
	PageSize      int         `json:"page_size"`
	HasMore       bool        `json:"has_more"`
}

type resultDTO struct {
	DocID         string             `json:"doc_id"`
	Filename      string             `json:"filename,omitempty"`
	LexicalScore  *float64           `json:"lexical_score,omitempty"`
	SemanticScore *float64           `json:"semantic_score,omitempty"`
	Score         float64            `json:"score"`
	Tags          map[string]string  `json:"tags,omitempty"`
	Numerics      map[string]float64 `json:"numerics,omitempty"`
}

// documentDTO is the PUT /documents/{id} body.
type documentDTO struct {
	Filename string             `json:"filename,omitempty"`
	Text     string             `json:"text"`
	Vector   []float32          `json:"vector,omitempty"`
	Tags     map[string]string  `json:"tags,omitempty"`
	Numerics map[string]float64 `json:"numerics,omitempty"`
}

type batchRequestDTO struct {
	Documents []batchItemDTO `json:"documents"`
}

type batchItemDTO struct {
	ID string `json:"id"`
	documentDTO
}

type batchResponseDTO struct {
	Saved  int             `json:"saved"`
	Errors []batchErrorDTO `json:"errors,omitempty"`
}

type batchErrorDTO struct {
	DocID   string `json:"doc_id"`
	Message string `json:"message"`
}

type documentResponseDTO struct {
	DocID    string             `json:"doc_id"`
	Filename string             `json:"filename,omitempty"`
	Text     string             `json:"text,omitempty"`
	Tags     map[string]string  `json:"tags,omitempty"`
	Numerics map[string]float64 `json:"numerics,omitempty"`
	SavedAt  int64              `json:"saved_at,omitempty"`
}

func toFilterExpression(dtos []filterDTO) (filter.Expression, error) {
	conditions := make([]filter.Condition, 0, len(dtos))
	for _, f := range dtos {
		c, err := toCondition(f)
		if err != nil {
			return filter.Expression{}, err
		}
		conditions = append(conditions, c)
	}
	expr, err := filter.NewExpression(conditions)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return expr, nil
}

func toCondition(f filterDTO) (filter.Condition, error) {
	hasRange := f.GT != nil || f.GTE != nil || f.LT != nil || f.LTE != nil

	kinds := 0
	if f.Match != "" {
		kinds++
	}
	if len(f.AnyOf) > 0 {
		kinds++
	}
	if hasRange {
		kinds++
	}
	if kinds != 1 {
		return filter.Condition{}, fmt.Errorf(
			"%w: filter on %q must have exactly one of match, any_of, or range bounds",
			domain.ErrValidation, f.Field,
		)
	}

	var (
		c   filter.Condition
		err error
	)
	switch {
	case f.Match != "":
		c, err = filter.NewMatch(f.Field, f.Match)
	case len(f.AnyOf) > 0:
		c, err = filter.NewAnyOf(f.Field, f.AnyOf)
	default:
		var r filter.Range
		r, err = filter.NewRangeBounds(f.GT, f.GTE, f.LT, f.LTE)
		if err == nil {
			c, err = filter.NewRange(f.Field, r)
		}
	}
	if err != nil {
		return filter.Condition{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return c, nil
}

func toResultDTO(r *result.Result) resultDTO {
	return resultDTO{
		DocID:         r.ID(),
		Filename:      r.Filename(),
		LexicalScore:  r.LexicalScore(),
		SemanticScore: r.SemanticScore(),
		Score:         r.FusedScore(),
		Tags:          r.Tags(),
		Numerics:      r.Numerics(),
	}
}

func toPageDTO(p result.Page) searchResponseDTO {
	results := make([]resultDTO, len(p.Results))
	for i := range p.Results {
		results[i] = toResultDTO(&p.Results[i])
	}
	return searchResponseDTO{
		Results:       results,
		TotalEstimate: p.Total,
		Page:          p.Page,
		PageSize:      p.PageSize,
		HasMore:       p.HasMore,
	}
}

func toDocumentResponseDTO(doc *domdoc.Document, includeText bool) documentResponseDTO {
	dto := documentResponseDTO{
		DocID:    doc.ID(),
		Filename: doc.Filename(),
		Tags:     doc.Tags(),
		Numerics: doc.Numerics(),
		SavedAt:  doc.SavedAt(),
	}
	if includeText {
		dto.Text = doc.Text()
	}
	return dto
}
