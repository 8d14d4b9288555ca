// Package config loads imgvec settings from defaults, an optional YAML
// file, an optional .env file and IMGVEC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/imgvec/feature"
	"github.com/viant/imgvec/logging"
	"github.com/viant/imgvec/search"
	"github.com/viant/imgvec/vector/blobstore"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendBlob   = "blob"
	BackendQdrant = "qdrant"
)

// Blob providers.
const (
	ProviderLocal = "local"
	ProviderMinio = "minio"
	ProviderS3    = "s3"
)

// Config is the full imgvec configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Search    SearchConfig    `yaml:"search"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Events    EventsConfig    `yaml:"events"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Backend string       `yaml:"backend" envconfig:"BACKEND"`
	SQLite  SQLiteConfig `yaml:"sqlite" envconfig:"SQLITE"`
	Badger  BadgerConfig `yaml:"badger" envconfig:"BADGER"`
	Blob    BlobConfig   `yaml:"blob" envconfig:"BLOB"`
	Qdrant  QdrantConfig `yaml:"qdrant" envconfig:"QDRANT"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" envconfig:"PATH"`
}

type BadgerConfig struct {
	Dir      string `yaml:"dir" envconfig:"DIR"`
	InMemory bool   `yaml:"inMemory" envconfig:"IN_MEMORY"`
}

// BlobConfig configures the blob backend. Dir is used by the local
// provider, Bucket and Prefix by minio and s3.
type BlobConfig struct {
	Provider    string `yaml:"provider" envconfig:"PROVIDER"`
	Compression string `yaml:"compression" envconfig:"COMPRESSION"`
	Dir         string `yaml:"dir" envconfig:"DIR"`
	Bucket      string `yaml:"bucket" envconfig:"BUCKET"`
	Prefix      string `yaml:"prefix" envconfig:"PREFIX"`
	Endpoint    string `yaml:"endpoint" envconfig:"ENDPOINT"`
	Region      string `yaml:"region" envconfig:"REGION"`
	AccessKey   string `yaml:"accessKey" envconfig:"ACCESS_KEY"`
	SecretKey   string `yaml:"secretKey" envconfig:"SECRET_KEY"`
	Secure      bool   `yaml:"secure" envconfig:"SECURE"`
}

type QdrantConfig struct {
	Addr       string `yaml:"addr" envconfig:"ADDR"`
	Collection string `yaml:"collection" envconfig:"COLLECTION"`
}

// ExtractorConfig mirrors feature.Config in a flat, file friendly form.
type ExtractorConfig struct {
	Strategy        string  `yaml:"strategy" envconfig:"STRATEGY"`
	Resolution      int     `yaml:"resolution" envconfig:"RESOLUTION"`
	Radius          float64 `yaml:"radius" envconfig:"RADIUS"`
	Points          int     `yaml:"points" envconfig:"POINTS"`
	CellGrid        int     `yaml:"cellGrid" envconfig:"CELL_GRID"`
	OrientationBins int     `yaml:"orientationBins" envconfig:"ORIENTATION_BINS"`
	MaxPixels       int     `yaml:"maxPixels" envconfig:"MAX_PIXELS"`

	Model            string        `yaml:"model" envconfig:"MODEL"`
	Endpoint         string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	Detector         string        `yaml:"detector" envconfig:"DETECTOR"`
	EnforceDetection bool          `yaml:"enforceDetection" envconfig:"ENFORCE_DETECTION"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

type SearchConfig struct {
	TopK        int     `yaml:"topK" envconfig:"TOP_K"`
	Concurrency int     `yaml:"concurrency" envconfig:"CONCURRENCY"`
	Rate        float64 `yaml:"rate" envconfig:"RATE"`
	Burst       int     `yaml:"burst" envconfig:"BURST"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
	// ImageDir holds the reference images served at /images.
	ImageDir       string        `yaml:"imageDir" envconfig:"IMAGE_DIR"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes" envconfig:"MAX_UPLOAD_BYTES"`
	ReadTimeout    time.Duration `yaml:"readTimeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" envconfig:"WRITE_TIMEOUT"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// EventsConfig enables the Kafka publisher when Brokers is set.
type EventsConfig struct {
	Brokers      string        `yaml:"brokers" envconfig:"BROKERS"`
	Topic        string        `yaml:"topic" envconfig:"TOPIC"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"WRITE_TIMEOUT"`
}

// Enabled reports whether events are published.
func (e EventsConfig) Enabled() bool {
	return strings.TrimSpace(e.Brokers) != ""
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	fc := feature.DefaultConfig()
	return &Config{
		Store: StoreConfig{
			Backend: BackendSQLite,
			SQLite:  SQLiteConfig{Path: "data/imgvec.db"},
			Badger:  BadgerConfig{Dir: "data/badger"},
			Blob: BlobConfig{
				Provider:    ProviderLocal,
				Compression: blobstore.CompressionZSTD.String(),
				Dir:         "data/vectors",
				Bucket:      "imgvec",
			},
			Qdrant: QdrantConfig{Addr: "localhost:6334", Collection: "images"},
		},
		Extractor: ExtractorConfig{
			Strategy:         string(fc.Strategy),
			Resolution:       fc.Resolution,
			Radius:           fc.Radius,
			Points:           fc.Points,
			CellGrid:         fc.CellGrid,
			OrientationBins:  fc.OrientationBins,
			MaxPixels:        fc.MaxPixels,
			Model:            fc.Embedding.Model,
			Endpoint:         fc.Embedding.Endpoint,
			Detector:         fc.Embedding.Detector,
			EnforceDetection: fc.Embedding.EnforceDetection,
			Timeout:          fc.Embedding.Timeout,
		},
		Search: SearchConfig{TopK: search.DefaultTopK, Concurrency: 4},
		Server: ServerConfig{
			Addr:           ":8000",
			ImageDir:       "data/images",
			MaxUploadBytes: 16 << 20,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Events: EventsConfig{Topic: "imgvec.images", WriteTimeout: 5 * time.Second},
	}
}

// FeatureConfig maps the extractor settings to feature.Config.
func (e ExtractorConfig) FeatureConfig() (feature.Config, error) {
	strategy, err := feature.ParseStrategy(e.Strategy)
	if err != nil {
		return feature.Config{}, err
	}
	return feature.Config{
		Strategy:        strategy,
		Resolution:      e.Resolution,
		Radius:          e.Radius,
		Points:          e.Points,
		CellGrid:        e.CellGrid,
		OrientationBins: e.OrientationBins,
		MaxPixels:       e.MaxPixels,
		Embedding: feature.EmbeddingConfig{
			Model:            e.Model,
			Endpoint:         e.Endpoint,
			Detector:         e.Detector,
			EnforceDetection: e.EnforceDetection,
			Timeout:          e.Timeout,
		},
	}, nil
}

// Validate checks backend names and extractor settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("%w: store.sqlite.path is required", ErrInvalid)
		}
	case BackendBadger:
		if c.Store.Badger.Dir == "" && !c.Store.Badger.InMemory {
			return fmt.Errorf("%w: store.badger.dir is required", ErrInvalid)
		}
	case BackendBlob:
		if _, err := blobstore.ParseCompression(c.Store.Blob.Compression); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		switch c.Store.Blob.Provider {
		case ProviderLocal:
			if c.Store.Blob.Dir == "" {
				return fmt.Errorf("%w: store.blob.dir is required", ErrInvalid)
			}
		case ProviderMinio, ProviderS3:
			if c.Store.Blob.Bucket == "" {
				return fmt.Errorf("%w: store.blob.bucket is required", ErrInvalid)
			}
			if c.Store.Blob.Provider == ProviderMinio && c.Store.Blob.Endpoint == "" {
				return fmt.Errorf("%w: store.blob.endpoint is required for minio", ErrInvalid)
			}
		default:
			return fmt.Errorf("%w: unknown blob provider %q", ErrInvalid, c.Store.Blob.Provider)
		}
	case BackendQdrant:
		if c.Store.Qdrant.Addr == "" || c.Store.Qdrant.Collection == "" {
			return fmt.Errorf("%w: store.qdrant.addr and collection are required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalid, c.Store.Backend)
	}

	fc, err := c.Extractor.FeatureConfig()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := fc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Search.TopK < 1 {
		return fmt.Errorf("%w: search.topK must be at least 1", ErrInvalid)
	}
	if c.Search.Rate < 0 {
		return fmt.Errorf("%w: search.rate must not be negative", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}
	if c.Events.Enabled() && c.Events.Topic == "" {
		return fmt.Errorf("%w: events.topic is required when brokers are set", ErrInvalid)
	}
	return nil
}
