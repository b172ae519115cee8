package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	dbBadger "github.com/docsense/retrieval/internal/db/badger"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
	"github.com/docsense/retrieval/internal/index/lexical"
	"github.com/docsense/retrieval/internal/index/semantic"
	recordrepo "github.com/docsense/retrieval/internal/repository/record"
	documentuc "github.com/docsense/retrieval/internal/usecase/document"
	healthuc "github.com/docsense/retrieval/internal/usecase/health"
	searchuc "github.com/docsense/retrieval/internal/usecase/search"
)

const defaultDimension = 384

// Client is the embedded retrieval engine entry point.
type Client struct {
	store     *dbBadger.Store
	docSvc    *documentuc.Service
	searchSvc *searchuc.Service
	healthSvc *healthuc.Service
}

// New opens the store, wires the engine, and rebuilds the in-memory indexes
// from the stored records. The provided context bounds the rebuild.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dimension:   defaultDimension,
		fusionAlpha: searchuc.DefaultAlpha,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.path == "" && !cfg.inMemory {
		return nil, fmt.Errorf("retrieval: data directory required (use WithDataDir or WithInMemory)")
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := dbBadger.NewStore(dbBadger.Config{
		Path:     cfg.path,
		InMemory: cfg.inMemory,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval: open store: %w", err)
	}

	lexIndex := lexical.New()
	semIndex := semantic.New(cfg.dimension)
	records := recordrepo.New(store)

	docSvc := documentuc.New(records, lexIndex, semIndex, logger)
	if cfg.rebuildWorkers > 0 {
		docSvc = docSvc.WithRebuildWorkers(cfg.rebuildWorkers)
	}
	searchSvc := searchuc.New(lexIndex, semIndex, records, logger).
		WithAlpha(cfg.fusionAlpha)
	if cfg.maxCandidates > 0 {
		searchSvc = searchSvc.WithMaxCandidates(cfg.maxCandidates)
	}
	healthSvc := healthuc.New(records, lexIndex, semIndex)

	if err := docSvc.Rebuild(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("retrieval: rebuild indexes: %w", err)
	}

	return &Client{
		store:     store,
		docSvc:    docSvc,
		searchSvc: searchSvc,
		healthSvc: healthSvc,
	}, nil
}

// Close releases the underlying store.
func (c *Client) Close() error {
	return c.store.Close()
}

// Save stores and indexes a document, replacing any previous version.
func (c *Client) Save(ctx context.Context, doc Document) error {
	d, err := toInternalDocument(doc)
	if err != nil {
		return err
	}
	if err := c.docSvc.Save(ctx, d); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// SaveBatch stores and indexes documents one by one, collecting per-item
// failures instead of aborting.
func (c *Client) SaveBatch(ctx context.Context, docs []Document) BatchResult {
	res := BatchResult{}
	internal := make([]domdoc.Document, 0, len(docs))
	for _, d := range docs {
		doc, err := toInternalDocument(d)
		if err != nil {
			res.Errors = append(res.Errors, BatchError{ID: d.ID, Err: err})
			continue
		}
		internal = append(internal, doc)
	}

	batch := c.docSvc.SaveBatch(ctx, internal)
	res.Saved = batch.Saved
	for _, e := range batch.Errors {
		res.Errors = append(res.Errors, BatchError{ID: e.ID, Err: e.Err})
	}
	return res
}

// Get retrieves a stored document by id.
func (c *Client) Get(ctx context.Context, id string) (Document, error) {
	d, err := c.docSvc.Get(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Delete removes a document from the store and both indexes. Deleting an
// unknown id is not an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.docSvc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Recent lists the most recently saved documents, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]Document, error) {
	docs, err := c.docSvc.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent documents: %w", err)
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = fromInternalDocument(d)
	}
	return out, nil
}

// Search runs a retrieval query and returns one page of ranked results.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchPage, error) {
	r, err := toInternalRequest(req)
	if err != nil {
		return SearchPage{}, err
	}
	page, err := c.searchSvc.Search(ctx, &r)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}
	return fromInternalPage(page), nil
}

// Stats returns the current engine sizing snapshot.
func (c *Client) Stats(ctx context.Context) (EngineStats, error) {
	st, err := c.healthSvc.Check(ctx)
	if err != nil {
		return EngineStats{}, fmt.Errorf("stats: %w", err)
	}
	return EngineStats{
		Documents:       st.Documents,
		LexicalDocs:     st.LexicalDocs,
		SemanticVectors: st.SemanticVectors,
		Dimension:       st.Dimension,
	}, nil
}
