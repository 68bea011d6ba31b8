package typedann

import (
	"bytes"
	"errors"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyOptions(t *testing.T) {
	o := applyOptions(nil)
	assert.IsType(t, NoopMetricsCollector{}, o.metricsCollector)
	assert.NotNil(t, o.logger)
	assert.Equal(t, runtime.GOMAXPROCS(0), o.batchWorkers)

	o = applyOptions([]Option{
		WithBatchWorkers(3),
		WithMemoryLimit(1 << 20),
		WithSeed(7),
		WithMetricsCollector(nil),
		WithLogger(nil),
	})
	assert.Equal(t, 3, o.batchWorkers)
	assert.Equal(t, int64(1<<20), o.memoryLimit)
	assert.Equal(t, uint64(7), o.seed)
	assert.NotNil(t, o.metricsCollector)
	assert.NotNil(t, o.logger)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.WithKey(5).WithDimensions(8).Info("hello")
	assert.Contains(t, buf.String(), "key=5")
	assert.Contains(t, buf.String(), "dimensions=8")

	buf.Reset()
	l.LogBatchInsert(10, 2, errors.New("boom"))
	assert.Contains(t, buf.String(), "batch insert aborted")
	assert.Contains(t, buf.String(), "failed=2")

	buf.Reset()
	l.LogPersist("save", "/tmp/x", nil)
	assert.Contains(t, buf.String(), "save completed")

	NoopLogger().LogInsert(1, nil)
}

func TestBasicMetricsCollector(t *testing.T) {
	var m BasicMetricsCollector

	m.RecordInsert(2*time.Millisecond, nil)
	m.RecordInsert(4*time.Millisecond, errors.New("x"))
	m.RecordBatchInsert(10, 1, time.Second)
	m.RecordSearch(5, time.Millisecond, nil)
	m.RecordRemove(time.Millisecond, errors.New("x"))
	m.RecordPersist("save", time.Millisecond, nil)

	s := m.GetStats()
	assert.Equal(t, int64(2), s.InsertCount)
	assert.Equal(t, int64(1), s.InsertErrors)
	assert.Equal(t, int64(3*time.Millisecond), s.InsertAvgNanos)
	assert.Equal(t, int64(1), s.BatchInsertCount)
	assert.Equal(t, int64(10), s.BatchInsertItems)
	assert.Equal(t, int64(1), s.BatchInsertFailed)
	assert.Equal(t, int64(1), s.SearchCount)
	assert.Equal(t, int64(1), s.RemoveErrors)
	assert.Equal(t, int64(1), s.PersistCount)
	assert.Zero(t, s.PersistErrors)
}
