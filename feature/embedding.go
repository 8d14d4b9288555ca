package feature

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
)

// Region is a detected area of the input image, in pixels.
type Region struct {
	X, Y, W, H int
}

// Representation is one embedding returned by a Model.
type Representation struct {
	Embedding  []float32
	Region     Region
	Confidence float64
}

// RepresentOptions are passed through to the model.
type RepresentOptions struct {
	Detector         string
	EnforceDetection bool
}

// Model is an external embedding model. Implementations return ErrNoRegion
// when detection is enforced and nothing usable is found.
type Model interface {
	Name() string
	Dimension() int
	Represent(ctx context.Context, img image.Image, opts RepresentOptions) ([]Representation, error)
}

// EmbeddingExtractor delegates extraction to a Model and keeps the
// highest-confidence representation.
type EmbeddingExtractor struct {
	model Model
	opts  RepresentOptions
}

// NewEmbeddingExtractor returns an extractor backed by model.
func NewEmbeddingExtractor(model Model, cfg EmbeddingConfig) *EmbeddingExtractor {
	return &EmbeddingExtractor{
		model: model,
		opts:  RepresentOptions{Detector: cfg.Detector, EnforceDetection: cfg.EnforceDetection},
	}
}

// Dimension implements Extractor.
func (e *EmbeddingExtractor) Dimension() int { return e.model.Dimension() }

// Strategy implements Extractor.
func (e *EmbeddingExtractor) Strategy() Strategy { return StrategyEmbedding }

// Extract implements Extractor.
func (e *EmbeddingExtractor) Extract(ctx context.Context, img image.Image) ([]float32, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrExtraction)
	}
	reps, err := e.model.Represent(ctx, img, e.opts)
	if err != nil {
		if errors.Is(err, ErrExtraction) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrExtraction, e.model.Name(), err)
	}
	if len(reps) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, ErrNoRegion)
	}
	best := 0
	for i := 1; i < len(reps); i++ {
		if reps[i].Confidence > reps[best].Confidence {
			best = i
		}
	}
	emb := reps[best].Embedding
	if want := e.model.Dimension(); want > 0 && len(emb) != want {
		return nil, fmt.Errorf("%w: %s returned %d values, want %d", ErrExtraction, e.model.Name(), len(emb), want)
	}
	for i, v := range emb {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: non-finite value at %d", ErrExtraction, i)
		}
	}
	return append([]float32(nil), emb...), nil
}
