package promcollector

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/typedann"
)

func TestCollector(t *testing.T) {
	c := New("test")

	c.RecordInsert(time.Millisecond, nil)
	c.RecordInsert(time.Millisecond, errors.New("x"))
	c.RecordBatchInsert(10, 2, time.Second)
	c.RecordSearch(5, time.Millisecond, nil)
	c.RecordRemove(time.Millisecond, nil)
	c.RecordPersist("save", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("add", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("batch_insert", "error")))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.batchItems.WithLabelValues("submitted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.batchItems.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("save", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.searchCounts))
}

func TestCollectorRegistersAndWiresIntoIndex(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := New("typedann")
	require.NoError(t, reg.Register(c))

	idx, err := typedann.TryDefault[float32, typedann.Dims2, typedann.L2sq](typedann.WithMetricsCollector(c))
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Add(1, []float32{1, 2}))
	_, err = idx.Search([]float32{1, 2}, 1)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("search", "ok")))

	n, err := testutil.GatherAndCount(reg, "typedann_index_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
