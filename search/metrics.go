package search

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics from the pipeline.
type MetricsCollector interface {
	// RecordIngest is called after each Ingest; err is nil when stored.
	RecordIngest(duration time.Duration, err error)

	// RecordQuery is called after each Query.
	RecordQuery(k int, duration time.Duration, err error)

	// RecordCorrupt is called with the number of stored records skipped
	// during a scan.
	RecordCorrupt(count int)

	// RecordBatch is called after each Batch.
	RecordBatch(count, rejected int, duration time.Duration)
}

// NoopMetrics discards all metrics.
type NoopMetrics struct{}

func (NoopMetrics) RecordIngest(time.Duration, error)     {}
func (NoopMetrics) RecordQuery(int, time.Duration, error) {}
func (NoopMetrics) RecordCorrupt(int)                     {}
func (NoopMetrics) RecordBatch(int, int, time.Duration)   {}

// BasicMetrics keeps in-memory counters.
type BasicMetrics struct {
	IngestCount      atomic.Int64
	IngestRejected   atomic.Int64
	IngestTotalNanos atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryTotalNanos  atomic.Int64
	CorruptRecords   atomic.Int64
	BatchCount       atomic.Int64
	BatchItems       atomic.Int64
	BatchRejected    atomic.Int64
}

// RecordIngest implements MetricsCollector.
func (b *BasicMetrics) RecordIngest(duration time.Duration, err error) {
	b.IngestCount.Add(1)
	b.IngestTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IngestRejected.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetrics) RecordQuery(_ int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordCorrupt implements MetricsCollector.
func (b *BasicMetrics) RecordCorrupt(count int) {
	b.CorruptRecords.Add(int64(count))
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetrics) RecordBatch(count, rejected int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchItems.Add(int64(count))
	b.BatchRejected.Add(int64(rejected))
}

// Stats returns a snapshot of the counters.
func (b *BasicMetrics) Stats() BasicMetricsStats {
	return BasicMetricsStats{
		IngestCount:    b.IngestCount.Load(),
		IngestRejected: b.IngestRejected.Load(),
		IngestAvgNanos: avg(b.IngestTotalNanos.Load(), b.IngestCount.Load()),
		QueryCount:     b.QueryCount.Load(),
		QueryErrors:    b.QueryErrors.Load(),
		QueryAvgNanos:  avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		CorruptRecords: b.CorruptRecords.Load(),
		BatchCount:     b.BatchCount.Load(),
		BatchItems:     b.BatchItems.Load(),
		BatchRejected:  b.BatchRejected.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetrics.
type BasicMetricsStats struct {
	IngestCount    int64
	IngestRejected int64
	IngestAvgNanos int64
	QueryCount     int64
	QueryErrors    int64
	QueryAvgNanos  int64
	CorruptRecords int64
	BatchCount     int64
	BatchItems     int64
	BatchRejected  int64
}
