package feature

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds the decoded area when no limit is configured.
const DefaultMaxPixels = 1 << 26

// Decode decodes raw image bytes with DefaultMaxPixels. It returns the
// image and the format name.
func Decode(data []byte) (image.Image, string, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit decodes raw image bytes, rejecting images whose header
// declares more than maxPixels pixels before any pixel buffer is
// allocated. A non-positive maxPixels selects DefaultMaxPixels.
func DecodeLimit(data []byte, maxPixels int) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrDecode)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: zero-area %s image", ErrDecode, format)
	}
	if area := int64(cfg.Width) * int64(cfg.Height); area > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %s image %dx%d exceeds %d pixels", ErrDecode, format, cfg.Width, cfg.Height, maxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("%w: zero-area %s image", ErrDecode, format)
	}
	return img, format, nil
}
