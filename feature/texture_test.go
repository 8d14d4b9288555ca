package feature

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestTextureExtractor_Shape(t *testing.T) {
	ext, err := NewTextureExtractor(DefaultConfig())
	require.NoError(t, err)
	ctx := context.Background()

	images := map[string]image.Image{
		"checkerboard": checkerboard(96, 8),
		"stripes":      stripes(200, 64, 5),
		"noise":        noise(50, 7),
		"tiny":         noise(3, 1),
	}
	for name, img := range images {
		t.Run(name, func(t *testing.T) {
			vec, err := ext.Extract(ctx, img)
			require.NoError(t, err)
			require.Len(t, vec, ext.Dimension())
			for i, x := range vec {
				require.False(t, math.IsNaN(float64(x)) || math.IsInf(float64(x), 0), "value %d not finite", i)
				require.GreaterOrEqual(t, x, float32(0))
			}
			// Each cell's texture histogram sums to one.
			for cell := 0; cell < 16; cell++ {
				var sum float64
				for _, x := range vec[cell*19 : cell*19+10] {
					sum += float64(x)
				}
				assert.InDelta(t, 1.0, sum, 1e-4)
			}
		})
	}
}

func TestTextureExtractor_Discriminates(t *testing.T) {
	ext, err := NewTextureExtractor(DefaultConfig())
	require.NoError(t, err)
	ctx := context.Background()

	board := checkerboard(128, 8)
	first, err := ext.Extract(ctx, board)
	require.NoError(t, err)
	second, err := ext.Extract(ctx, board)
	require.NoError(t, err)
	assert.Equal(t, first, second, "extraction must be deterministic")

	decoded, _, err := Decode(encodePNG(t, board))
	require.NoError(t, err)
	fromPNG, err := ext.Extract(ctx, decoded)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cosine(first, fromPNG), 1e-6)

	other, err := ext.Extract(ctx, stripes(128, 128, 3))
	require.NoError(t, err)
	assert.Less(t, cosine(first, other), 0.999)
}

func TestTextureExtractor_UniformImage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution = 64
	ext, err := NewTextureExtractor(cfg)
	require.NoError(t, err)
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 90
	}
	vec, err := ext.Extract(context.Background(), img)
	require.NoError(t, err)
	// Flat cells: every pattern is all-ones, no gradient votes.
	assert.InDelta(t, 1.0, vec[8], 1e-6)
	for _, x := range vec[10:19] {
		assert.Zero(t, x)
	}
}

func TestTextureExtractor_CustomGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution, cfg.CellGrid, cfg.Points, cfg.Radius, cfg.OrientationBins = 64, 2, 16, 2, 6
	ext, err := NewTextureExtractor(cfg)
	require.NoError(t, err)
	vec, err := ext.Extract(context.Background(), noise(80, 3))
	require.NoError(t, err)
	assert.Len(t, vec, 4*(16+2+6))
}

func TestTextureExtractor_Cancelled(t *testing.T) {
	ext, err := NewTextureExtractor(DefaultConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ext.Extract(ctx, noise(10, 1))
	assert.ErrorIs(t, err, context.Canceled)
}
