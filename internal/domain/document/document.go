package document

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxTextSize is the maximum document text size in bytes.
const MaxTextSize = 1 << 20 // 1MB

// Document is the canonical processed representation of an ingested document
// (immutable value object). The lexical and semantic indexes hold derived
// projections keyed by the same identifier; they are only ever updated through
// this record, never independently.
type Document struct {
	id       string
	filename string
	text     string
	vector   []float32
	tags     map[string]string
	numerics map[string]float64
	savedAt  int64
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Text: max 1MB, may be empty (a document
// that yields no extractable text is still stored and searchable by metadata).
// The vector is optional; when present its dimension is validated by the
// semantic index, not here.
func New(
	id, filename, text string,
	vector []float32,
	tags map[string]string,
	numerics map[string]float64,
) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("text too large (max %d bytes)", MaxTextSize)
	}

	return Document{
		id:       id,
		filename: filename,
		text:     text,
		vector:   cloneVector(vector),
		tags:     cloneStringMap(tags),
		numerics: cloneFloat64Map(numerics),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, filename, text string,
	vector []float32,
	tags map[string]string,
	numerics map[string]float64,
	savedAt int64,
) Document {
	return Document{
		id: id, filename: filename, text: text,
		vector: vector, tags: tags, numerics: numerics, savedAt: savedAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Filename returns the original filename.
func (d *Document) Filename() string { return d.filename }

// Text returns the extracted full text used for lexical indexing.
func (d *Document) Text() string { return d.text }

// Vector returns the embedding vector (nil if none was derived).
func (d *Document) Vector() []float32 { return d.vector }

// Tags returns the string metadata fields (language, category, compliance flags).
func (d *Document) Tags() map[string]string { return d.tags }

// Numerics returns the numeric metadata fields (upload timestamp, char count).
func (d *Document) Numerics() map[string]float64 { return d.numerics }

// SavedAt returns the unix nano timestamp of the last save (0 until persisted).
func (d *Document) SavedAt() int64 { return d.savedAt }

// WithSavedAt returns a copy stamped with the given save time.
func (d *Document) WithSavedAt(ts int64) Document {
	c := *d
	c.savedAt = ts
	return c
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	c := make([]float32, len(v))
	copy(c, v)
	return c
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneFloat64Map(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
