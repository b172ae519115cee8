package document

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
)

// Rebuild repopulates both indexes from the record store. Called once at
// startup before the engine serves queries. The stored manifest is validated
// first: a schema version or dimension mismatch means the records cannot be
// trusted to match the configured index layout and is fatal.
func (s *Service) Rebuild(ctx context.Context) error {
	m, ok, err := s.records.LoadManifest(ctx)
	if err != nil {
		return err
	}
	if ok {
		if m.SchemaVersion != domain.IndexSchemaVersion {
			return fmt.Errorf("%w: stored schema version %d, engine expects %d",
				domain.ErrStorageCorrupt, m.SchemaVersion, domain.IndexSchemaVersion)
		}
		if m.Dimension != 0 && m.Dimension != s.semantic.Dimension() {
			return fmt.Errorf("%w: stored vector dimension %d, engine configured for %d",
				domain.ErrStorageCorrupt, m.Dimension, s.semantic.Dimension())
		}
	}

	pool, err := ants.NewPool(s.rebuildWorkers)
	if err != nil {
		return fmt.Errorf("rebuild pool: %w", err)
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		indexed atomic.Int64
		skipped atomic.Int64
	)

	err = s.records.Each(ctx, func(doc domdoc.Document) error {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			s.reindexOne(doc, &indexed, &skipped)
		}
		if submitErr := pool.Submit(task); submitErr != nil {
			task()
		}
		return nil
	})
	wg.Wait()
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	if ok && int(indexed.Load()) != m.Documents {
		s.logger.Warn("manifest document count disagrees with store",
			zap.Int("manifest", m.Documents),
			zap.Int64("rebuilt", indexed.Load()),
		)
	}

	s.updateManifest(ctx)
	s.observeSizes()
	s.logger.Info("indexes rebuilt from record store",
		zap.Int64("documents", indexed.Load()),
		zap.Int64("vectors_skipped", skipped.Load()),
		zap.Int("lexical_size", s.lexical.Size()),
		zap.Int("semantic_size", s.semantic.Size()),
	)
	return nil
}

// reindexOne restores one record into both indexes. A stored vector of the
// wrong dimension is skipped with a warning; the document stays lexically
// searchable.
func (s *Service) reindexOne(doc domdoc.Document, indexed, skipped *atomic.Int64) {
	s.lexical.Index(doc.ID(), doc.Text())
	if len(doc.Vector()) > 0 {
		if err := s.semantic.Index(doc.ID(), doc.Vector()); err != nil {
			if errors.Is(err, domain.ErrDimensionMismatch) {
				skipped.Add(1)
				s.logger.Warn("stored vector skipped during rebuild",
					zap.String("doc_id", doc.ID()),
					zap.Error(err),
				)
			} else {
				s.logger.Error("semantic reindex failed",
					zap.String("doc_id", doc.ID()),
					zap.Error(err),
				)
			}
		}
	}
	indexed.Add(1)
}
