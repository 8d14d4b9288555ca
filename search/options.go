package search

import (
	"github.com/viant/imgvec/events"
	"github.com/viant/imgvec/logging"
)

// DefaultTopK is the number of matches returned when the caller does not
// ask for a specific k.
const DefaultTopK = 3

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopK sets the default number of matches.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithPublisher sets the publisher notified of ingestion outcomes.
func WithPublisher(pub events.Publisher) Option {
	return func(p *Pipeline) {
		if pub != nil {
			p.publisher = pub
		}
	}
}

// WithMaxPixels caps the pixel area of decoded inputs.
func WithMaxPixels(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxPixels = n
		}
	}
}
