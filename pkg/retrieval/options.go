package retrieval

import "go.uber.org/zap"

type clientConfig struct {
	path           string
	inMemory       bool
	dimension      int
	fusionAlpha    float64
	maxCandidates  int
	rebuildWorkers int
	logger         *zap.Logger
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(cfg *clientConfig) { f(cfg) }

// WithDataDir sets the badger data directory for durable storage.
func WithDataDir(path string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.path = path
	})
}

// WithInMemory opens an ephemeral store with no disk state.
func WithInMemory() Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.inMemory = true
	})
}

// WithDimension sets the fixed vector dimension (default 384).
func WithDimension(n int) Option {
	return optionFunc(func(cfg *clientConfig) {
		if n > 0 {
			cfg.dimension = n
		}
	})
}

// WithFusionAlpha sets the lexical weight in hybrid fusion (0..1, default 0.5).
func WithFusionAlpha(alpha float64) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.fusionAlpha = alpha
	})
}

// WithMaxCandidates caps the per-index candidate pool (default 500).
func WithMaxCandidates(n int) Option {
	return optionFunc(func(cfg *clientConfig) {
		if n > 0 {
			cfg.maxCandidates = n
		}
	})
}

// WithRebuildWorkers sets the index rebuild pool size (default 4).
func WithRebuildWorkers(n int) Option {
	return optionFunc(func(cfg *clientConfig) {
		if n > 0 {
			cfg.rebuildWorkers = n
		}
	})
}

// WithLogger attaches a zap logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.logger = l
	})
}
