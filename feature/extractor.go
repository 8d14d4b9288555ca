package feature

import (
	"context"
	"fmt"
	"image"
)

// Extractor maps a decoded image to a fixed-length vector.
type Extractor interface {
	// Extract returns exactly Dimension() values for img.
	Extract(ctx context.Context, img image.Image) ([]float32, error)
	Dimension() int
	Strategy() Strategy
}

type options struct {
	model Model
}

// Option configures New.
type Option func(*options)

// WithModel sets the model used by the embedding strategy.
func WithModel(m Model) Option {
	return func(o *options) { o.model = m }
}

// New builds the extractor selected by cfg.Strategy.
func New(cfg Config, opts ...Option) (Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	switch cfg.Strategy {
	case StrategyEmbedding:
		if o.model == nil {
			return nil, fmt.Errorf("%w: embedding strategy requires a model", ErrInvalidConfig)
		}
		return NewEmbeddingExtractor(o.model, cfg.Embedding), nil
	default:
		return NewTextureExtractor(cfg)
	}
}
