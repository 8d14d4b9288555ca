// Package metrics exports pipeline metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viant/imgvec/search"
)

// Prometheus implements search.MetricsCollector with Prometheus collectors.
type Prometheus struct {
	opLatency  *prometheus.HistogramVec
	ingests    *prometheus.CounterVec
	corrupt    prometheus.Counter
	batchItems *prometheus.CounterVec
	queryK     prometheus.Histogram
	gatherer   prometheus.Gatherer
}

// NewPrometheus creates the collectors and registers them with reg. A nil
// reg uses a fresh registry.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	p := &Prometheus{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imgvec_operation_latency_seconds",
			Help:    "Latency of pipeline operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imgvec_ingests_total",
			Help: "Ingested images by outcome",
		}, []string{"state"}),
		corrupt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgvec_corrupt_records_total",
			Help: "Stored records skipped during scans",
		}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imgvec_batch_items_total",
			Help: "Batch ingestion items by outcome",
		}, []string{"state"}),
		queryK: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "imgvec_query_k",
			Help:    "Requested number of matches per query",
			Buckets: []float64{1, 3, 5, 10, 25, 50, 100},
		}),
		gatherer: reg,
	}
	reg.MustRegister(p.opLatency, p.ingests, p.corrupt, p.batchItems, p.queryK)
	return p
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordIngest implements search.MetricsCollector.
func (p *Prometheus) RecordIngest(d time.Duration, err error) {
	p.opLatency.WithLabelValues("ingest", status(err)).Observe(d.Seconds())
	state := string(search.StateStored)
	if err != nil {
		state = string(search.StateRejected)
	}
	p.ingests.WithLabelValues(state).Inc()
}

// RecordQuery implements search.MetricsCollector.
func (p *Prometheus) RecordQuery(k int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("query", status(err)).Observe(d.Seconds())
	p.queryK.Observe(float64(k))
}

// RecordCorrupt implements search.MetricsCollector.
func (p *Prometheus) RecordCorrupt(count int) {
	p.corrupt.Add(float64(count))
}

// RecordBatch implements search.MetricsCollector.
func (p *Prometheus) RecordBatch(count, rejected int, d time.Duration) {
	p.opLatency.WithLabelValues("batch", "success").Observe(d.Seconds())
	p.batchItems.WithLabelValues(string(search.StateStored)).Add(float64(count - rejected))
	p.batchItems.WithLabelValues(string(search.StateRejected)).Add(float64(rejected))
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

var _ search.MetricsCollector = (*Prometheus)(nil)
