package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/docsense/retrieval/internal/db"
	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
)

// Repo is the document record store: the single owner of document content.
// Index updates are always driven through it, never independently.
type Repo struct {
	store db.Store
}

// New creates a record repository.
func New(store db.Store) *Repo {
	return &Repo{store: store}
}

// Save stores or replaces the record for doc, stamping the save time.
func (r *Repo) Save(ctx context.Context, doc domdoc.Document) (domdoc.Document, error) {
	stamped := doc.WithSavedAt(time.Now().UnixNano())
	payload, err := marshalRecord(&stamped)
	if err != nil {
		return domdoc.Document{}, err
	}
	if err := r.store.PutRecord(ctx, stamped.ID(), payload); err != nil {
		return domdoc.Document{}, fmt.Errorf("save record: %w", err)
	}
	return stamped, nil
}

// Get returns the record for id, or domain.ErrDocumentNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	payload, err := r.store.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("get record: %w", err)
	}
	return unmarshalRecord(id, payload)
}

// Delete removes the record for id. Deleting an unknown id succeeds.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Each calls fn for every stored record.
func (r *Repo) Each(ctx context.Context, fn func(doc domdoc.Document) error) error {
	return r.store.EachRecord(ctx, func(id string, payload []byte) error {
		doc, err := unmarshalRecord(id, payload)
		if err != nil {
			return err
		}
		return fn(doc)
	})
}

// Count returns the number of stored records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	return r.store.CountRecords(ctx)
}

// Recent returns up to limit records, newest save first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]domdoc.Document, error) {
	var docs []domdoc.Document
	err := r.Each(ctx, func(doc domdoc.Document) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].SavedAt() != docs[j].SavedAt() {
			return docs[i].SavedAt() > docs[j].SavedAt()
		}
		return docs[i].ID() < docs[j].ID()
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// SaveManifest persists the index manifest.
func (r *Repo) SaveManifest(ctx context.Context, m domain.IndexManifest) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := r.store.PutManifest(ctx, payload); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// LoadManifest returns the stored manifest. ok is false when none exists yet
// (fresh database).
func (r *Repo) LoadManifest(ctx context.Context) (m domain.IndexManifest, ok bool, err error) {
	payload, err := r.store.GetManifest(ctx)
	if err != nil {
		return domain.IndexManifest{}, false, fmt.Errorf("load manifest: %w", err)
	}
	if payload == nil {
		return domain.IndexManifest{}, false, nil
	}
	if err := json.Unmarshal(payload, &m); err != nil {
		return domain.IndexManifest{}, false, fmt.Errorf("%w: manifest: %v", domain.ErrStorageCorrupt, err)
	}
	return m, true, nil
}
