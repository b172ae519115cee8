package domain

import "context"

// Embedder vectorizes text. The engine core never calls a provider itself; it
// only accepts precomputed vectors. The serving layer uses an Embedder to
// derive a query vector when a semantic or hybrid request arrives without
// one, and the ingestion path may use it for documents uploaded without a
// vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
