package typedann

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics.
// The promcollector package exports them to Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each Add.
	RecordInsert(duration time.Duration, err error)

	// RecordBatchInsert is called after each BatchInsert. failed counts the
	// insertions that returned an error.
	RecordBatchInsert(count, failed int, duration time.Duration)

	// RecordSearch is called after each search of any kind.
	RecordSearch(count int, duration time.Duration, err error)

	// RecordRemove is called after each Remove.
	RecordRemove(duration time.Duration, err error)

	// RecordPersist is called after save, load and view operations.
	RecordPersist(op string, duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)          {}
func (NoopMetricsCollector) RecordBatchInsert(int, int, time.Duration)  {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error)          {}
func (NoopMetricsCollector) RecordPersist(string, time.Duration, error) {}

// BasicMetricsCollector keeps simple in-memory counters.
type BasicMetricsCollector struct {
	InsertCount       atomic.Int64
	InsertErrors      atomic.Int64
	InsertTotalNanos  atomic.Int64
	BatchInsertCount  atomic.Int64
	BatchInsertItems  atomic.Int64
	BatchInsertFailed atomic.Int64
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchTotalNanos  atomic.Int64
	RemoveCount       atomic.Int64
	RemoveErrors      atomic.Int64
	PersistCount      atomic.Int64
	PersistErrors     atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(count, failed int, _ time.Duration) {
	b.BatchInsertCount.Add(1)
	b.BatchInsertItems.Add(int64(count))
	b.BatchInsertFailed.Add(int64(failed))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(_ time.Duration, err error) {
	b.RemoveCount.Add(1)
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(_ string, _ time.Duration, err error) {
	b.PersistCount.Add(1)
	if err != nil {
		b.PersistErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:       b.InsertCount.Load(),
		InsertErrors:      b.InsertErrors.Load(),
		InsertAvgNanos:    avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		BatchInsertCount:  b.BatchInsertCount.Load(),
		BatchInsertItems:  b.BatchInsertItems.Load(),
		BatchInsertFailed: b.BatchInsertFailed.Load(),
		SearchCount:       b.SearchCount.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchAvgNanos:    avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		RemoveCount:       b.RemoveCount.Load(),
		RemoveErrors:      b.RemoveErrors.Load(),
		PersistCount:      b.PersistCount.Load(),
		PersistErrors:     b.PersistErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount       int64
	InsertErrors      int64
	InsertAvgNanos    int64
	BatchInsertCount  int64
	BatchInsertItems  int64
	BatchInsertFailed int64
	SearchCount       int64
	SearchErrors      int64
	SearchAvgNanos    int64
	RemoveCount       int64
	RemoveErrors      int64
	PersistCount      int64
	PersistErrors     int64
}
