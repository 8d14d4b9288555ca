package feature

import (
	"fmt"
	"strings"
	"time"
)

// Strategy selects the extraction algorithm.
type Strategy string

const (
	StrategyTexture   Strategy = "texture"
	StrategyEmbedding Strategy = "embedding"
)

// ParseStrategy maps a configuration string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyTexture:
		return StrategyTexture, nil
	case StrategyEmbedding:
		return StrategyEmbedding, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, s)
}

// EmbeddingConfig configures the embedding strategy.
type EmbeddingConfig struct {
	// Model is the embedding model name, e.g. Facenet.
	Model string
	// Endpoint is the base URL of the model service.
	Endpoint string
	// Detector is the region detector backend used by the model service.
	Detector string
	// EnforceDetection fails extraction when no region is detected. When
	// false the whole image is embedded.
	EnforceDetection bool
	Timeout          time.Duration
}

// Config holds extractor parameters.
type Config struct {
	Strategy Strategy

	// Resolution is the side of the square grayscale image the texture
	// strategy works on.
	Resolution int
	// Radius and Points parametrize the local binary pattern circle.
	Radius float64
	Points int
	// CellGrid is the number of cells per side.
	CellGrid int
	// OrientationBins is the number of unsigned gradient orientation bins.
	OrientationBins int
	// MaxPixels caps the width×height an input image may declare.
	MaxPixels int

	Embedding EmbeddingConfig
}

// DefaultConfig returns the texture strategy defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:        StrategyTexture,
		Resolution:      128,
		Radius:          1,
		Points:          8,
		CellGrid:        4,
		OrientationBins: 9,
		MaxPixels:       DefaultMaxPixels,
		Embedding: EmbeddingConfig{
			Model:            "Facenet",
			Endpoint:         "http://localhost:5005",
			Detector:         "opencv",
			EnforceDetection: true,
			Timeout:          30 * time.Second,
		},
	}
}

// Validate checks the parameters of the selected strategy.
func (c Config) Validate() error {
	if c.MaxPixels < 0 {
		return fmt.Errorf("%w: max pixels must not be negative", ErrInvalidConfig)
	}
	switch c.Strategy {
	case StrategyTexture:
		if c.Resolution <= 0 || c.CellGrid <= 0 || c.Points <= 0 || c.OrientationBins <= 0 || c.Radius <= 0 {
			return fmt.Errorf("%w: resolution, radius, points, cell grid and orientation bins must be positive", ErrInvalidConfig)
		}
		if c.Points > 32 {
			return fmt.Errorf("%w: points %d exceeds 32", ErrInvalidConfig, c.Points)
		}
		if c.Resolution%c.CellGrid != 0 {
			return fmt.Errorf("%w: resolution %d not divisible by cell grid %d", ErrInvalidConfig, c.Resolution, c.CellGrid)
		}
		if c.Resolution/c.CellGrid < 2 {
			return fmt.Errorf("%w: cells smaller than 2px", ErrInvalidConfig)
		}
	case StrategyEmbedding:
		if c.Embedding.Model == "" {
			return fmt.Errorf("%w: embedding model is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, c.Strategy)
	}
	return nil
}

// TextureDimension returns the vector length of the texture strategy:
// CellGrid² × (Points + 2 + OrientationBins).
func (c Config) TextureDimension() int {
	return c.CellGrid * c.CellGrid * (c.Points + 2 + c.OrientationBins)
}
