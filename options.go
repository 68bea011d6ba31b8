package typedann

import (
	"log/slog"
	"runtime"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	batchWorkers     int
	memoryLimit      int64
	seed             uint64
}

// Option configures an Index at construction.
type Option func(*options)

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &typedann.BasicMetricsCollector{}
//	idx, _ := typedann.TryDefault[float32, typedann.Dims128, typedann.Cos](typedann.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Adds: %d, Avg latency: %dns\n", stats.InsertCount, stats.InsertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
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

// WithBatchWorkers bounds the goroutines used by BatchInsert and
// SearchBatch. Values below 1 select GOMAXPROCS.
func WithBatchWorkers(n int) Option {
	return func(o *options) {
		o.batchWorkers = n
	}
}

// WithMemoryLimit caps the bytes the index may reserve for vectors and
// graph slots. Exceeding it fails Add and Reserve with a NativeError.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithSeed fixes the random source used for graph level assignment, making
// graph construction reproducible for a fixed insertion order.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.batchWorkers < 1 {
		o.batchWorkers = runtime.GOMAXPROCS(0)
	}
	return o
}
