package search

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/imgvec/events"
	"github.com/viant/imgvec/feature"
	"github.com/viant/imgvec/rank"
	"github.com/viant/imgvec/vector"
)

// widthExtractor maps an image to a fixed vector chosen by its width.
type widthExtractor struct {
	dim     int
	vectors map[int][]float32
}

func (w *widthExtractor) Extract(_ context.Context, img image.Image) ([]float32, error) {
	v, ok := w.vectors[img.Bounds().Dx()]
	if !ok {
		return nil, feature.ErrNoRegion
	}
	return v, nil
}
func (w *widthExtractor) Dimension() int             { return w.dim }
func (w *widthExtractor) Strategy() feature.Strategy { return feature.StrategyEmbedding }

func pngOfWidth(t *testing.T, width int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, 2))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func texturePNG(t *testing.T, seed int64) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(x * 5), uint8(y * 5), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}
func (r *recordingPublisher) Close() error { return nil }

func scenarioPipeline(t *testing.T, opts ...Option) (*Pipeline, *vector.MemoryStore) {
	t.Helper()
	ext := &widthExtractor{dim: 2, vectors: map[int][]float32{
		1: {1, 0},
		2: {0, 1},
		3: {0.9, 0.1},
		4: {0, 0},
	}}
	store := vector.NewMemoryStore()
	return New(ext, store, opts...), store
}

func TestPipeline_Scenario(t *testing.T) {
	ctx := context.Background()
	p, _ := scenarioPipeline(t)

	for name, width := range map[string]int{"A": 1, "B": 2, "C": 3} {
		out := p.Ingest(ctx, pngOfWidth(t, width), name)
		require.True(t, out.Stored(), "ingest %s: %v", name, out.Err)
	}

	res, err := p.Query(ctx, pngOfWidth(t, 1), 2)
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "A", res.Matches[0].ID)
	assert.InDelta(t, 1.0, res.Matches[0].Score, 1e-9)
	assert.Equal(t, "C", res.Matches[1].ID)
	assert.InDelta(t, 0.9/math.Sqrt(0.82), res.Matches[1].Score, 1e-3)
	assert.Equal(t, 3, res.Candidates)
	assert.False(t, res.NoData())
}

func TestPipeline_QueryEmptyStore(t *testing.T) {
	p, _ := scenarioPipeline(t)
	res, err := p.Query(context.Background(), pngOfWidth(t, 1), 0)
	require.NoError(t, err)
	assert.True(t, res.NoData())
	assert.Empty(t, res.Matches)
}

func TestPipeline_IngestRejections(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetrics{}
	p, store := scenarioPipeline(t, WithMetrics(metrics))

	out := p.Ingest(ctx, []byte("not an image"), "x.jpg")
	assert.Equal(t, StateRejected, out.State)
	assert.ErrorIs(t, out.Err, feature.ErrDecode)
	assert.Equal(t, "image could not be decoded", out.Reason)

	out = p.Ingest(ctx, pngOfWidth(t, 9), "noface.jpg")
	assert.ErrorIs(t, out.Err, feature.ErrNoRegion)

	out = p.Ingest(ctx, pngOfWidth(t, 4), "zero.jpg")
	assert.ErrorIs(t, out.Err, feature.ErrExtraction)

	out = p.Ingest(ctx, pngOfWidth(t, 1), "../")
	assert.ErrorIs(t, out.Err, ErrInvalidIdentifier)

	assert.Zero(t, store.Len())
	assert.EqualValues(t, 4, metrics.Stats().IngestRejected)
}

func TestPipeline_MaxPixels(t *testing.T) {
	ctx := context.Background()
	p, store := scenarioPipeline(t, WithMaxPixels(4))

	out := p.Ingest(ctx, pngOfWidth(t, 3), "wide.jpg")
	assert.ErrorIs(t, out.Err, feature.ErrDecode)
	_, err := p.Query(ctx, pngOfWidth(t, 3), 1)
	assert.ErrorIs(t, err, feature.ErrDecode)

	out = p.Ingest(ctx, pngOfWidth(t, 2), "fits.jpg")
	require.True(t, out.Stored(), "%v", out.Err)
	assert.Equal(t, 1, store.Len())
}

func TestPipeline_IngestUsesBaseName(t *testing.T) {
	p, store := scenarioPipeline(t)
	out := p.Ingest(context.Background(), pngOfWidth(t, 1), "uploads/2024/cat.jpg")
	require.True(t, out.Stored())
	assert.Equal(t, "cat.jpg", out.ID)
	_, err := store.Get(context.Background(), "cat.jpg")
	require.NoError(t, err)
}

func TestPipeline_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	p, store := scenarioPipeline(t)
	require.NoError(t, store.Upsert(ctx, vector.Record{ID: "old.jpg", Embedding: []float32{1, 2, 3}}))

	out := p.Ingest(ctx, pngOfWidth(t, 1), "new.jpg")
	var dm *vector.DimensionMismatchError
	require.ErrorAs(t, out.Err, &dm)
	assert.Contains(t, out.Reason, "expected 3, got 2")

	// The old record cannot be compared with a 2-d query and is excluded.
	res, err := p.Query(ctx, pngOfWidth(t, 1), 3)
	require.NoError(t, err)
	assert.True(t, res.NoData())
	require.Len(t, res.Excluded, 1)
	assert.Equal(t, rank.ReasonDimensionMismatch, res.Excluded[0].Reason)
}

type brokenStore struct {
	vector.Store
	loadErr error
	corrupt []*vector.CorruptRecordError
	records []vector.Record
}

func (b *brokenStore) LoadAll(context.Context) (*vector.LoadResult, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return &vector.LoadResult{Records: b.records, Corrupt: b.corrupt}, nil
}

func TestPipeline_QueryStoreFailures(t *testing.T) {
	ctx := context.Background()
	ext := &widthExtractor{dim: 2, vectors: map[int][]float32{1: {1, 0}}}

	p := New(ext, &brokenStore{loadErr: errors.New("disk on fire")})
	_, err := p.Query(ctx, pngOfWidth(t, 1), 3)
	assert.ErrorIs(t, err, vector.ErrStoreUnavailable)
	assert.Equal(t, "vector store unavailable", Reason(err))

	metrics := &BasicMetrics{}
	p = New(ext, &brokenStore{
		records: []vector.Record{{ID: "ok.jpg", Embedding: []float32{1, 1}}},
		corrupt: []*vector.CorruptRecordError{vector.NewCorruptRecordError("bad.jpg", errors.New("truncated"))},
	}, WithMetrics(metrics))
	res, err := p.Query(ctx, pngOfWidth(t, 1), 3)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Len(t, res.Corrupt, 1)
	assert.EqualValues(t, 1, metrics.Stats().CorruptRecords)

	_, err = p.Query(ctx, pngOfWidth(t, 1), -1)
	assert.ErrorIs(t, err, rank.ErrInvalidK)
	_, err = p.Query(ctx, []byte{0x00}, 3)
	assert.ErrorIs(t, err, feature.ErrDecode)
}

func TestPipeline_Events(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	p, _ := scenarioPipeline(t, WithPublisher(pub))

	out := p.Ingest(ctx, pngOfWidth(t, 1), "a.jpg")
	assert.True(t, out.Stored(), "publish failure must not change the outcome")
	p.Ingest(ctx, []byte("junk"), "b.jpg")

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.TypeStored, pub.events[0].Type)
	assert.Equal(t, 2, pub.events[0].Dimension)
	assert.Equal(t, events.TypeRejected, pub.events[1].Type)
	assert.Equal(t, "image could not be decoded", pub.events[1].Reason)
}

func TestPipeline_TextureSelfMatch(t *testing.T) {
	ctx := context.Background()
	cfg := feature.DefaultConfig()
	cfg.Resolution = 64
	ext, err := feature.New(cfg)
	require.NoError(t, err)
	db := vector.NewMemoryStore()
	p := New(ext, db, WithTopK(2))

	for i, name := range []string{"one.png", "two.png", "three.png"} {
		out := p.Ingest(ctx, texturePNG(t, int64(i+1)), name)
		require.True(t, out.Stored(), out.Reason)
		assert.Equal(t, ext.Dimension(), out.Dimension)
	}
	rec, err := db.Get(ctx, "two.png")
	require.NoError(t, err)
	assert.Len(t, rec.Embedding, 4*4*19)

	res, err := p.Query(ctx, texturePNG(t, 2), 0)
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "two.png", res.Matches[0].ID)
	assert.InDelta(t, 1.0, res.Matches[0].Score, 1e-6)
}

func TestIdentifier(t *testing.T) {
	for in, want := range map[string]string{
		"cat.jpg":             "cat.jpg",
		"/srv/images/dog.png": "dog.png",
		`C:\images\bird.webp`: "bird.webp",
		"  spaced name.jpg  ": "spaced name.jpg",
	} {
		got, err := Identifier(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "   ", ".", "..", "/"} {
		_, err := Identifier(in)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, in)
	}
}

type getOnlyStore struct{ vector.Store }

func TestPipeline_Remove(t *testing.T) {
	ctx := context.Background()
	p, store := scenarioPipeline(t)
	require.True(t, p.Ingest(ctx, pngOfWidth(t, 1), "A.png").Stored())
	require.True(t, p.Ingest(ctx, pngOfWidth(t, 2), "B.png").Stored())

	id, err := p.Remove(ctx, "uploads/A.png")
	require.NoError(t, err)
	assert.Equal(t, "A.png", id)
	assert.Equal(t, 1, store.Len())

	_, err = p.Remove(ctx, "A.png")
	assert.ErrorIs(t, err, vector.ErrNotFound)
	assert.Equal(t, "image not found", Reason(err))

	_, err = p.Remove(ctx, "..")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	res, err := p.Query(ctx, pngOfWidth(t, 1), 3)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "B.png", res.Matches[0].ID)

	readOnly := New(&widthExtractor{dim: 2}, getOnlyStore{store})
	_, err = readOnly.Remove(ctx, "B.png")
	assert.ErrorIs(t, err, ErrRemoveUnsupported)
}
