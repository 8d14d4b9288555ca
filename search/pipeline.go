package search

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/imgvec/events"
	"github.com/viant/imgvec/feature"
	"github.com/viant/imgvec/logging"
	"github.com/viant/imgvec/rank"
	"github.com/viant/imgvec/vector"
)

// Pipeline runs ingestion and similarity queries. It is safe for
// concurrent use when its store is.
type Pipeline struct {
	extractor feature.Extractor
	store     vector.Store
	topK      int
	maxPixels int
	logger    *logging.Logger
	metrics   MetricsCollector
	publisher events.Publisher
	now       func() time.Time
}

// New creates a Pipeline.
func New(extractor feature.Extractor, store vector.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		store:     store,
		topK:      DefaultTopK,
		maxPixels: feature.DefaultMaxPixels,
		logger:    logging.NoopLogger(),
		metrics:   NoopMetrics{},
		publisher: events.Noop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TopK returns the default number of matches.
func (p *Pipeline) TopK() int { return p.topK }

// Extractor returns the configured extractor.
func (p *Pipeline) Extractor() feature.Extractor { return p.extractor }

// Store returns the configured store.
func (p *Pipeline) Store() vector.Store { return p.store }

// vectorize decodes data and extracts a usable vector.
func (p *Pipeline) vectorize(ctx context.Context, data []byte) ([]float32, error) {
	img, _, err := feature.DecodeLimit(data, p.maxPixels)
	if err != nil {
		return nil, err
	}
	vec, err := p.extractor.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	if want := p.extractor.Dimension(); want > 0 && len(vec) != want {
		return nil, fmt.Errorf("%w: got %d values, want %d", feature.ErrExtraction, len(vec), want)
	}
	if !vector.IsUsable(vec) {
		return nil, fmt.Errorf("%w: zero magnitude or non-finite vector", feature.ErrExtraction)
	}
	return vec, nil
}

// Ingest decodes an image, extracts its vector and upserts it under the
// identifier derived from filename. A rejected image leaves the store
// untouched for that identifier.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, filename string) IngestOutcome {
	start := time.Now()
	out := p.ingest(ctx, data, filename)
	p.metrics.RecordIngest(time.Since(start), out.Err)
	p.logger.LogIngest(ctx, out.ID, out.Dimension, out.Err)
	p.publish(ctx, out)
	return out
}

func (p *Pipeline) ingest(ctx context.Context, data []byte, filename string) IngestOutcome {
	id, err := Identifier(filename)
	if err != nil {
		return rejected(filename, err)
	}
	vec, err := p.vectorize(ctx, data)
	if err != nil {
		return rejected(id, err)
	}
	if err := p.store.Upsert(ctx, vector.Record{ID: id, Embedding: vec}); err != nil {
		return rejected(id, err)
	}
	return IngestOutcome{ID: id, State: StateStored, Dimension: len(vec)}
}

func rejected(id string, err error) IngestOutcome {
	return IngestOutcome{ID: id, State: StateRejected, Reason: Reason(err), Err: err}
}

func (p *Pipeline) publish(ctx context.Context, out IngestOutcome) {
	ev := events.Event{Type: events.TypeStored, ID: out.ID, Dimension: out.Dimension, Time: p.now()}
	if !out.Stored() {
		ev.Type = events.TypeRejected
		ev.Reason = out.Reason
	}
	if err := p.publisher.Publish(ctx, ev); err != nil {
		p.logger.WarnContext(ctx, "publish ingest event failed", "id", out.ID, "error", err)
	}
}

// Remove deletes the record whose identifier derives from filename. It
// returns vector.ErrNotFound when nothing is stored under it.
func (p *Pipeline) Remove(ctx context.Context, filename string) (string, error) {
	id, err := p.remove(ctx, filename)
	p.logger.LogRemove(ctx, id, err)
	return id, err
}

func (p *Pipeline) remove(ctx context.Context, filename string) (string, error) {
	id, err := Identifier(filename)
	if err != nil {
		return "", err
	}
	remover, ok := p.store.(vector.Remover)
	if !ok {
		return id, ErrRemoveUnsupported
	}
	if _, err := p.store.Get(ctx, id); err != nil {
		return id, vector.Unavailable(err)
	}
	return id, vector.Unavailable(remover.Remove(ctx, id))
}

// Query ranks the stored images against the image in data and returns at
// most k matches. A k of 0 selects the pipeline default. An empty store is
// not an error: the result reports NoData. Query never writes.
func (p *Pipeline) Query(ctx context.Context, data []byte, k int) (*QueryResult, error) {
	if k == 0 {
		k = p.topK
	}
	start := time.Now()
	res, err := p.query(ctx, data, k)
	p.metrics.RecordQuery(k, time.Since(start), err)
	matches, candidates := 0, 0
	if res != nil {
		matches, candidates = len(res.Matches), res.Candidates
	}
	p.logger.LogQuery(ctx, k, candidates, matches, err)
	return res, err
}

func (p *Pipeline) query(ctx context.Context, data []byte, k int) (*QueryResult, error) {
	if k < 1 {
		return nil, rank.ErrInvalidK
	}
	vec, err := p.vectorize(ctx, data)
	if err != nil {
		return nil, err
	}
	loaded, err := p.store.LoadAll(ctx)
	if err != nil {
		return nil, vector.Unavailable(err)
	}
	if n := len(loaded.Corrupt); n > 0 {
		p.metrics.RecordCorrupt(n)
		for _, c := range loaded.Corrupt {
			p.logger.LogCorrupt(ctx, c.ID, c)
		}
	}
	ranked, err := rank.Rank(vec, loaded.Records, k)
	if err != nil {
		return nil, err
	}
	for _, ex := range ranked.Excluded {
		p.logger.LogExcluded(ctx, ex.ID, string(ex.Reason))
	}
	return &QueryResult{
		Matches:    ranked.Matches,
		Candidates: len(loaded.Records),
		Excluded:   ranked.Excluded,
		Corrupt:    loaded.Corrupt,
	}, nil
}
