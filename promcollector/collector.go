// Package promcollector exports typedann index metrics to Prometheus.
//
//	c := promcollector.New("myapp")
//	prometheus.MustRegister(c)
//	idx, err := typedann.TryDefault[float32, typedann.Dims384, typedann.Cos](typedann.WithMetricsCollector(c))
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/typedann"
)

// Collector implements typedann.MetricsCollector and prometheus.Collector.
type Collector struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	batchItems   *prometheus.CounterVec
	searchCounts prometheus.Histogram
}

var (
	_ typedann.MetricsCollector = (*Collector)(nil)
	_ prometheus.Collector      = (*Collector)(nil)
)

// New creates a collector whose metrics live under namespace.
func New(namespace string) *Collector {
	return &Collector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "operations_total",
				Help:      "Total number of index operations",
			},
			[]string{"op", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "operation_duration_seconds",
				Help:      "Index operation duration in seconds",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"op"},
		),
		batchItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "batch_items_total",
				Help:      "Vectors submitted through batch insertion",
			},
			[]string{"status"},
		),
		searchCounts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "search_count",
				Help:      "Requested result count per search",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	c.observeStatus(op, d, status(err))
}

func (c *Collector) observeStatus(op string, d time.Duration, status string) {
	c.operations.WithLabelValues(op, status).Inc()
	c.duration.WithLabelValues(op).Observe(d.Seconds())
}

func (c *Collector) RecordInsert(d time.Duration, err error) {
	c.observe("add", d, err)
}

func (c *Collector) RecordBatchInsert(count, failed int, d time.Duration) {
	st := "ok"
	if failed > 0 {
		st = "error"
	}
	c.observeStatus("batch_insert", d, st)
	c.batchItems.WithLabelValues("submitted").Add(float64(count))
	c.batchItems.WithLabelValues("failed").Add(float64(failed))
}

func (c *Collector) RecordSearch(count int, d time.Duration, err error) {
	c.observe("search", d, err)
	c.searchCounts.Observe(float64(count))
}

func (c *Collector) RecordRemove(d time.Duration, err error) {
	c.observe("remove", d, err)
}

func (c *Collector) RecordPersist(op string, d time.Duration, err error) {
	c.observe(op, d, err)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.operations.Describe(ch)
	c.duration.Describe(ch)
	c.batchItems.Describe(ch)
	c.searchCounts.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.operations.Collect(ch)
	c.duration.Collect(ch)
	c.batchItems.Collect(ch)
	c.searchCounts.Collect(ch)
}
