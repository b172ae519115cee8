package document

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
	"github.com/docsense/retrieval/internal/metrics"
)

const defaultRebuildWorkers = 4

// Service handles document ingestion: it stores the canonical record and
// keeps both indexes in sync with it. Each save replaces any prior version in
// the store and in both indexes; a delete purges all three.
type Service struct {
	records        RecordStore
	lexical        LexicalIndex
	semantic       SemanticIndex
	logger         *zap.Logger
	rebuildWorkers int
}

// New creates a document service.
func New(records RecordStore, lexical LexicalIndex, semantic SemanticIndex, logger *zap.Logger) *Service {
	return &Service{
		records:        records,
		lexical:        lexical,
		semantic:       semantic,
		logger:         logger,
		rebuildWorkers: defaultRebuildWorkers,
	}
}

// WithRebuildWorkers sets the worker pool size for startup index rebuilds.
func (s *Service) WithRebuildWorkers(n int) *Service {
	if n > 0 {
		s.rebuildWorkers = n
	}
	return s
}

// Save stores the document and indexes it. The record and lexical postings
// are always replaced; the semantic side is replaced only when the new
// version carries a vector of the right dimension. A dimension mismatch is
// returned to the caller but does not undo the lexical indexing: the two
// indexes are independently recoverable, and the caller decides whether to
// re-derive the vector.
func (s *Service) Save(ctx context.Context, doc domdoc.Document) error {
	stamped, err := s.records.Save(ctx, doc)
	if err != nil {
		metrics.DocumentsIndexedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("store document %q: %w", doc.ID(), err)
	}

	s.lexical.Index(stamped.ID(), stamped.Text())

	var semErr error
	if len(stamped.Vector()) > 0 {
		semErr = s.semantic.Index(stamped.ID(), stamped.Vector())
	} else {
		// New version has no vector: drop the stale one.
		s.semantic.Remove(stamped.ID())
	}

	s.updateManifest(ctx)
	s.observeSizes()

	if semErr != nil {
		metrics.DocumentsIndexedTotal.WithLabelValues("partial").Inc()
		s.logger.Warn("document indexed lexically only",
			zap.String("doc_id", stamped.ID()),
			zap.Error(semErr),
		)
		return fmt.Errorf("semantic index %q: %w", stamped.ID(), semErr)
	}

	metrics.DocumentsIndexedTotal.WithLabelValues("ok").Inc()
	s.logger.Debug("document indexed",
		zap.String("doc_id", stamped.ID()),
		zap.Int("text_bytes", len(stamped.Text())),
		zap.Bool("has_vector", len(stamped.Vector()) > 0),
	)
	return nil
}

// BatchError pairs a document id with its save failure.
type BatchError struct {
	ID  string
	Err error
}

// BatchResult summarizes a batch save.
type BatchResult struct {
	Saved  int
	Errors []BatchError
}

// SaveBatch saves documents one by one, collecting per-document failures
// instead of aborting the batch.
func (s *Service) SaveBatch(ctx context.Context, docs []domdoc.Document) BatchResult {
	var res BatchResult
	for i := range docs {
		if err := s.Save(ctx, docs[i]); err != nil {
			res.Errors = append(res.Errors, BatchError{ID: docs[i].ID(), Err: err})
			continue
		}
		res.Saved++
	}
	return res
}

// Delete purges the document from both indexes and the store. Deleting an
// unknown id is not an error: delete is idempotent.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.lexical.Remove(id)
	s.semantic.Remove(id)
	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document %q: %w", id, err)
	}
	s.updateManifest(ctx)
	s.observeSizes()
	s.logger.Debug("document deleted", zap.String("doc_id", id))
	return nil
}

// Get returns the stored record for id.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Document, error) {
	doc, err := s.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("get document %q: %w", id, err)
	}
	return doc, nil
}

// Recent returns up to limit documents, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]domdoc.Document, error) {
	docs, err := s.records.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent documents: %w", err)
	}
	return docs, nil
}

// updateManifest rewrites the startup-validation manifest after a mutation.
// Failures are logged, not returned: the manifest is advisory and is
// reconciled on the next rebuild.
func (s *Service) updateManifest(ctx context.Context) {
	count, err := s.records.Count(ctx)
	if err != nil {
		s.logger.Error("count records for manifest", zap.Error(err))
		return
	}
	m := domain.IndexManifest{
		SchemaVersion: domain.IndexSchemaVersion,
		Dimension:     s.semantic.Dimension(),
		Documents:     count,
	}
	if err := s.records.SaveManifest(ctx, m); err != nil {
		s.logger.Error("save manifest", zap.Error(err))
	}
}

func (s *Service) observeSizes() {
	metrics.IndexSize.WithLabelValues("lexical").Set(float64(s.lexical.Size()))
	metrics.IndexSize.WithLabelValues("semantic").Set(float64(s.semantic.Size()))
}
