package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/imgvec/engine"
	"github.com/viant/imgvec/events"
	"github.com/viant/imgvec/feature"
	"github.com/viant/imgvec/feature/deepface"
	"github.com/viant/imgvec/logging"
	"github.com/viant/imgvec/vector"
	"github.com/viant/imgvec/vector/badgerstore"
	"github.com/viant/imgvec/vector/blobstore"
	"github.com/viant/imgvec/vector/qdrantstore"
)

// OpenStore opens the configured vector store backend.
func OpenStore(ctx context.Context, c StoreConfig, logger *logging.Logger) (vector.Store, error) {
	if logger == nil {
		logger = logging.NoopLogger()
	}
	switch c.Backend {
	case BackendSQLite:
		if err := ensureParent(c.SQLite.Path); err != nil {
			return nil, err
		}
		db, err := engine.OpenFile(c.SQLite.Path)
		if err != nil {
			return nil, vector.Unavailable(err)
		}
		store, err := vector.NewSQLiteStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	case BackendBadger:
		return badgerstore.Open(badgerstore.Options{
			Dir:      c.Badger.Dir,
			InMemory: c.Badger.InMemory,
			Logger:   logger.Logger,
		})
	case BackendBlob:
		bucket, err := openBucket(ctx, c.Blob)
		if err != nil {
			return nil, err
		}
		compression, err := blobstore.ParseCompression(c.Blob.Compression)
		if err != nil {
			return nil, err
		}
		return blobstore.New(ctx, bucket, compression)
	case BackendQdrant:
		return qdrantstore.Open(ctx, qdrantstore.Options{
			Addr:       c.Qdrant.Addr,
			Collection: c.Qdrant.Collection,
		})
	}
	return nil, fmt.Errorf("%w: unknown store backend %q", ErrInvalid, c.Backend)
}

func openBucket(ctx context.Context, c BlobConfig) (blobstore.Bucket, error) {
	switch c.Provider {
	case ProviderLocal:
		return blobstore.NewLocalBucket(c.Dir)
	case ProviderMinio:
		return blobstore.NewMinioBucket(ctx, blobstore.MinioOptions{
			Endpoint:  c.Endpoint,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			Secure:    c.Secure,
			Bucket:    c.Bucket,
			Prefix:    c.Prefix,
		})
	case ProviderS3:
		return blobstore.NewS3Bucket(ctx, blobstore.S3Options{
			Region:   c.Region,
			Endpoint: c.Endpoint,
			Bucket:   c.Bucket,
			Prefix:   c.Prefix,
		})
	}
	return nil, fmt.Errorf("%w: unknown blob provider %q", ErrInvalid, c.Provider)
}

func ensureParent(path string) error {
	if path == engine.MemoryDSN {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return vector.Unavailable(err)
		}
	}
	return nil
}

// NewExtractor builds the configured extractor. The embedding strategy
// talks to a DeepFace compatible service.
func NewExtractor(c ExtractorConfig) (feature.Extractor, error) {
	fc, err := c.FeatureConfig()
	if err != nil {
		return nil, err
	}
	if fc.Strategy != feature.StrategyEmbedding {
		return feature.New(fc)
	}
	client, err := deepface.New(fc.Embedding)
	if err != nil {
		return nil, err
	}
	return feature.New(fc, feature.WithModel(client))
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(c EventsConfig) (events.Publisher, error) {
	if !c.Enabled() {
		return events.Noop{}, nil
	}
	return events.NewKafka(events.KafkaOptions{
		Brokers:      c.Brokers,
		Topic:        c.Topic,
		WriteTimeout: c.WriteTimeout,
	})
}

// NewLogger builds the configured logger.
func NewLogger(c LogConfig) (*logging.Logger, error) {
	return logging.New(c.Level, c.Format)
}
