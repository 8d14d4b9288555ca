package cmd

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/viant/imgvec/config"
	"github.com/viant/imgvec/events"
	"github.com/viant/imgvec/logging"
	"github.com/viant/imgvec/metrics"
	"github.com/viant/imgvec/search"
	"github.com/viant/imgvec/vector"
)

// app holds everything a command needs, built from the loaded config.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	store     vector.Store
	publisher events.Publisher
	metrics   *metrics.Prometheus
	pipeline  *search.Pipeline
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	extractor, err := config.NewExtractor(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	store, err := config.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	publisher, err := config.NewPublisher(cfg.Events)
	if err != nil {
		store.Close()
		return nil, err
	}
	prom := metrics.NewPrometheus(prometheus.NewRegistry())
	a := &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		publisher: publisher,
		metrics:   prom,
	}
	a.pipeline = search.New(extractor, store,
		search.WithTopK(cfg.Search.TopK),
		search.WithMaxPixels(cfg.Extractor.MaxPixels),
		search.WithLogger(logger),
		search.WithMetrics(prom),
		search.WithPublisher(publisher),
	)
	logger.Debug("imgvec ready",
		"store", cfg.Store.Backend,
		"strategy", extractor.Strategy(),
		"dimension", extractor.Dimension(),
	)
	return a, nil
}

func (a *app) Close() error {
	return errors.Join(a.publisher.Close(), a.store.Close())
}
