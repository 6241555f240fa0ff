package pointflow

import (
	"log/slog"

	"github.com/hupe1980/pointflow/blobstore"
	"github.com/hupe1980/pointflow/codec"
	"github.com/hupe1980/pointflow/resource"
	"github.com/hupe1980/pointflow/stage"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	store            blobstore.BlobStore
	resources        resource.Config
	registry         *stage.Registry
	chunkSize        int
}

// Option configures a Manager.
type Option func(*options)

// WithCodec configures the codec used for the pipeline description and for
// the metadata, schema and pipeline documents.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pointflow.BasicMetricsCollector{}
//	m := pointflow.NewManager(pointflow.WithMetricsCollector(metrics))
//	// ... load and execute ...
//	stats := metrics.GetStats()
//	fmt.Printf("Runs: %d, Points: %d\n", stats.ExecuteCount, stats.PointsProcessed)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pointflow.NewJSONLogger(slog.LevelInfo)
//	m := pointflow.NewManager(pointflow.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithBlobStore configures the store that resolves the file names of reader
// and writer stages. Defaults to the local file system.
//
// Example with S3:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("clouds/"))
//	m := pointflow.NewManager(pointflow.WithBlobStore(store))
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithResourceConfig limits the memory held by point views, the number of
// branches executing concurrently and the IO throughput of file stages.
// A run exceeding the memory limit fails with an ExecutionError wrapping
// ErrMemoryLimit.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resources = cfg
	}
}

// WithRegistry configures the stage types available to pipelines.
// Defaults to stage.DefaultRegistry.
func WithRegistry(reg *stage.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithChunkSize sets the number of points per chunk in streamed execution.
// Values <= 0 select stage.DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.registry == nil {
		o.registry = stage.DefaultRegistry()
	}
	return o
}
