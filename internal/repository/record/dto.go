package record

import (
	"encoding/json"
	"fmt"

	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
)

// recordDTO is the JSON shape persisted per document.
type recordDTO struct {
	Filename string             `json:"filename,omitempty"`
	Text     string             `json:"text"`
	Vector   []float32          `json:"vector,omitempty"`
	Tags     map[string]string  `json:"tags,omitempty"`
	Numerics map[string]float64 `json:"numerics,omitempty"`
	SavedAt  int64              `json:"saved_at"`
}

func marshalRecord(doc *domdoc.Document) ([]byte, error) {
	dto := recordDTO{
		Filename: doc.Filename(),
		Text:     doc.Text(),
		Vector:   doc.Vector(),
		Tags:     doc.Tags(),
		Numerics: doc.Numerics(),
		SavedAt:  doc.SavedAt(),
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

func unmarshalRecord(id string, payload []byte) (domdoc.Document, error) {
	var dto recordDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: record %q: %v", domain.ErrStorageCorrupt, id, err)
	}
	return domdoc.Reconstruct(
		id, dto.Filename, dto.Text, dto.Vector, dto.Tags, dto.Numerics, dto.SavedAt,
	), nil
}

