package health

import "context"

// RecordCounter reports how many documents the record store holds.
type RecordCounter interface {
	Count(ctx context.Context) (int, error)
}

// IndexStats exposes index sizing for the health payload.
type IndexStats interface {
	Size() int
}

// DimensionedIndexStats additionally exposes the fixed vector dimension.
type DimensionedIndexStats interface {
	IndexStats
	Dimension() int
}

// EmbeddingHealthChecker verifies the embedding provider is reachable.
type EmbeddingHealthChecker interface {
	HealthCheck(ctx context.Context) error
}
