package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Item is one image of a batch. Read is called once, right before the
// image is ingested.
type Item struct {
	Filename string
	Read     func() ([]byte, error)
}

// FileItem returns an Item reading the file at path.
func FileItem(path string) Item {
	return Item{
		Filename: filepath.Base(path),
		Read:     func() ([]byte, error) { return os.ReadFile(path) },
	}
}

// BatchOptions controls Batch.
type BatchOptions struct {
	// Concurrency is the number of images ingested at once. Defaults to 1.
	Concurrency int
	// Rate limits ingestions per second. Zero disables limiting.
	Rate float64
	// Burst is the limiter burst size. Defaults to 1.
	Burst int
}

// Summary counts batch outcomes.
type Summary struct {
	Total    int
	Stored   int
	Rejected int
}

// BatchResult holds per-item outcomes in input order.
type BatchResult struct {
	Outcomes []IngestOutcome
	Summary  Summary
}

// Batch ingests every item. Each item is isolated: a rejection never stops
// the others. Identifiers are unique within a batch: an item resolving to
// an identifier an earlier item claimed is rejected with
// ErrDuplicateIdentifier. Only cancellation of ctx ends a batch early;
// items not started by then are reported as rejected.
func (p *Pipeline) Batch(ctx context.Context, items []Item, opts BatchOptions) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{Outcomes: make([]IngestOutcome, len(items))}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	duplicates := duplicateItems(items)

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			res.Outcomes[i] = rejected(item.Filename, err)
			continue
		}
		if err, ok := duplicates[i]; ok {
			res.Outcomes[i] = rejected(item.Filename, err)
			continue
		}
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					res.Outcomes[i] = rejected(item.Filename, err)
					return nil
				}
			}
			data, err := item.Read()
			if err != nil {
				res.Outcomes[i] = rejected(item.Filename, fmt.Errorf("search: read %s: %w", item.Filename, err))
				return nil
			}
			res.Outcomes[i] = p.Ingest(ctx, data, item.Filename)
			return nil
		})
	}
	_ = g.Wait()

	for _, out := range res.Outcomes {
		res.Summary.Total++
		if out.Stored() {
			res.Summary.Stored++
		} else {
			res.Summary.Rejected++
		}
	}
	p.metrics.RecordBatch(res.Summary.Total, res.Summary.Rejected, time.Since(start))
	p.logger.LogBatch(ctx, res.Summary.Total, res.Summary.Stored, res.Summary.Rejected)
	return res, ctx.Err()
}

// duplicateItems maps the index of every item whose identifier an earlier
// item already uses to its rejection. The first occurrence is kept.
func duplicateItems(items []Item) map[int]error {
	first := make(map[string]int, len(items))
	dup := make(map[int]error)
	for i, item := range items {
		id, err := Identifier(item.Filename)
		if err != nil {
			continue
		}
		if j, ok := first[id]; ok {
			dup[i] = fmt.Errorf("%w: %q already used by item %d", ErrDuplicateIdentifier, id, j)
			continue
		}
		first[id] = i
	}
	return dup
}
