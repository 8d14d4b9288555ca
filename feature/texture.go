package feature

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

const histogramEpsilon = 1e-7

// TextureExtractor concatenates, per grid cell, a rotation-invariant uniform
// LBP histogram and a gradient orientation histogram.
type TextureExtractor struct {
	cfg     Config
	circle  []point
	cellPx  int
	lbpBins int
}

type point struct{ dx, dy float64 }

// NewTextureExtractor validates cfg and precomputes the sampling circle.
func NewTextureExtractor(cfg Config) (*TextureExtractor, error) {
	cfg.Strategy = StrategyTexture
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	circle := make([]point, cfg.Points)
	for i := range circle {
		theta := 2 * math.Pi * float64(i) / float64(cfg.Points)
		circle[i] = point{
			dx: round5(cfg.Radius * math.Cos(theta)),
			dy: round5(-cfg.Radius * math.Sin(theta)),
		}
	}
	return &TextureExtractor{
		cfg:     cfg,
		circle:  circle,
		cellPx:  cfg.Resolution / cfg.CellGrid,
		lbpBins: cfg.Points + 2,
	}, nil
}

// Dimension implements Extractor.
func (t *TextureExtractor) Dimension() int { return t.cfg.TextureDimension() }

// Strategy implements Extractor.
func (t *TextureExtractor) Strategy() Strategy { return StrategyTexture }

// Extract implements Extractor.
func (t *TextureExtractor) Extract(ctx context.Context, img image.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrExtraction)
	}
	p := grayscale(img, t.cfg.Resolution)
	out := make([]float32, 0, t.Dimension())
	lbp := make([]float64, t.lbpBins)
	hog := make([]float64, t.cfg.OrientationBins)
	for cy := 0; cy < t.cfg.CellGrid; cy++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for cx := 0; cx < t.cfg.CellGrid; cx++ {
			clear(lbp)
			clear(hog)
			x0, y0 := cx*t.cellPx, cy*t.cellPx
			for y := y0; y < y0+t.cellPx; y++ {
				for x := x0; x < x0+t.cellPx; x++ {
					lbp[t.lbpCode(p, x, y)]++
					p.vote(hog, x, y)
				}
			}
			out = appendNormalized(out, lbp)
			out = appendNormalized(out, hog)
		}
	}
	return out, nil
}

// lbpCode returns the number of set bits for uniform patterns (at most two
// circular 0/1 transitions) and Points+1 for all other patterns.
func (t *TextureExtractor) lbpCode(p *plane, x, y int) int {
	center := p.at(x, y)
	var ones, transitions int
	var first, prev bool
	for i, c := range t.circle {
		bit := p.bilinear(float64(x)+c.dx, float64(y)+c.dy) >= center-1e-9
		if bit {
			ones++
		}
		if i == 0 {
			first = bit
		} else if bit != prev {
			transitions++
		}
		prev = bit
	}
	if prev != first {
		transitions++
	}
	if transitions <= 2 {
		return ones
	}
	return len(t.circle) + 1
}

// plane is a square grayscale image with values in [0,1].
type plane struct {
	size int
	pix  []float64
}

func grayscale(img image.Image, size int) *plane {
	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	p := &plane{size: size, pix: make([]float64, size*size)}
	for y := 0; y < size; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+size]
		for x, v := range row {
			p.pix[y*size+x] = float64(v) / 255
		}
	}
	return p
}

// at returns the pixel at (x, y) with coordinates clamped to the edges.
func (p *plane) at(x, y int) float64 {
	x = min(max(x, 0), p.size-1)
	y = min(max(y, 0), p.size-1)
	return p.pix[y*p.size+x]
}

func (p *plane) bilinear(x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	a, b := p.at(ix, iy), p.at(ix+1, iy)
	c, d := p.at(ix, iy+1), p.at(ix+1, iy+1)
	return a*(1-fx)*(1-fy) + b*fx*(1-fy) + c*(1-fx)*fy + d*fx*fy
}

// vote adds the magnitude-weighted unsigned orientation of the central
// difference gradient at (x, y), split between the two nearest bins.
func (p *plane) vote(hist []float64, x, y int) {
	gx := p.at(x+1, y) - p.at(x-1, y)
	gy := p.at(x, y+1) - p.at(x, y-1)
	mag := math.Hypot(gx, gy)
	if mag == 0 {
		return
	}
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	if angle >= 180 {
		angle -= 180
	}
	bins := len(hist)
	pos := angle/(180/float64(bins)) - 0.5
	lo := math.Floor(pos)
	frac := pos - lo
	b0 := (int(lo) + bins) % bins
	b1 := (b0 + 1) % bins
	hist[b0] += mag * (1 - frac)
	hist[b1] += mag * frac
}

func appendNormalized(dst []float32, h []float64) []float32 {
	var sum float64
	for _, v := range h {
		sum += v
	}
	for _, v := range h {
		dst = append(dst, float32(v/(sum+histogramEpsilon)))
	}
	return dst
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
