package feature

import "errors"

var (
	// ErrDecode is returned when input bytes cannot be decoded to pixels.
	ErrDecode = errors.New("feature: cannot decode image")

	// ErrExtraction is returned when no vector can be produced for a decoded image.
	ErrExtraction = errors.New("feature: extraction failed")

	// ErrNoRegion is returned by models when detection finds no usable region.
	// Extractors wrap it with ErrExtraction.
	ErrNoRegion = errors.New("feature: no detectable region")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("feature: invalid config")
)
