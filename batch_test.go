package typedann

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/typedann/testutil"
)

func TestBatchInsert(t *testing.T) {
	t.Run("UniqueKeys", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		idx, err := TryDefault[float32, Dims16, L2sq](WithBatchWorkers(4), WithMetricsCollector(metrics), WithSeed(9))
		require.NoError(t, err)
		defer idx.Close()

		rng := testutil.NewRNG(9)
		data := rng.UniformVectors(1000, 16)
		pairs := make([]Pair[float32], len(data))
		for i, v := range data {
			pairs[i] = Pair[float32]{Key: Key(i), Vector: v}
		}

		require.NoError(t, idx.BatchInsert(pairs))
		assert.Equal(t, 1000, idx.Size())
		for _, p := range pairs[:50] {
			assert.Equal(t, 1, idx.Count(p.Key))
		}

		m, err := idx.Search(data[123], 1)
		require.NoError(t, err)
		assert.Equal(t, Key(123), m.Keys[0])

		stats := metrics.GetStats()
		assert.Equal(t, int64(1), stats.BatchInsertCount)
		assert.Equal(t, int64(1000), stats.InsertCount)
	})

	t.Run("ReservesPastRemovedSlots", func(t *testing.T) {
		idx := newIndex[L2sq](t, false, WithBatchWorkers(4))

		data := testutil.NewRNG(3).UniformVectors(128, 4)
		for i, v := range data[:64] {
			require.NoError(t, idx.Add(Key(i), v))
		}
		for i := range 32 {
			_, err := idx.Remove(Key(i))
			require.NoError(t, err)
		}
		require.Equal(t, 64, idx.Capacity())

		pairs := make([]Pair[float32], 0, 64)
		for i, v := range data[64:] {
			pairs = append(pairs, Pair[float32]{Key: Key(1000 + i), Vector: v})
		}

		require.NoError(t, idx.BatchInsert(pairs))
		assert.Equal(t, 96, idx.Size())
		// 64 occupied slots plus 64 new ones, reserved once.
		assert.Equal(t, 128, idx.Capacity())
	})

	t.Run("Empty", func(t *testing.T) {
		idx, err := TryDefault[float32, Dims4, L2sq]()
		require.NoError(t, err)
		defer idx.Close()

		require.NoError(t, idx.BatchInsert(nil))
		assert.Zero(t, idx.Size())
	})

	t.Run("DuplicateKeyFails", func(t *testing.T) {
		idx, err := TryDefault[float32, Dims4, L2sq](WithBatchWorkers(2))
		require.NoError(t, err)
		defer idx.Close()

		err = idx.BatchInsert([]Pair[float32]{
			{Key: 1, Vector: []float32{1, 0, 0, 0}},
			{Key: 1, Vector: []float32{0, 1, 0, 0}},
		})
		assert.ErrorIs(t, err, ErrNative)
		assert.Equal(t, 1, idx.Size())
	})

	t.Run("FirstErrorStopsDispatch", func(t *testing.T) {
		idx, err := TryDefault[float32, Dims4, L2sq](WithBatchWorkers(1))
		require.NoError(t, err)
		defer idx.Close()

		pairs := []Pair[float32]{{Key: 0, Vector: []float32{1, 2}}}
		for i := 1; i < 100; i++ {
			pairs = append(pairs, Pair[float32]{Key: Key(i), Vector: []float32{float32(i), 0, 0, 0}})
		}

		err = idx.BatchInsert(pairs)
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.LessOrEqual(t, idx.Size(), 1)
	})

	t.Run("Closed", func(t *testing.T) {
		idx, err := TryDefault[float32, Dims4, L2sq]()
		require.NoError(t, err)
		require.NoError(t, idx.Close())

		assert.ErrorIs(t, idx.BatchInsert([]Pair[float32]{{Key: 1, Vector: []float32{1, 1, 1, 1}}}), ErrClosed)
	})
}

func TestSearchBatch(t *testing.T) {
	idx, err := TryDefault[float32, Dims4, L2sq](WithBatchWorkers(3))
	require.NoError(t, err)
	defer idx.Close()

	for i := range 20 {
		require.NoError(t, idx.Add(Key(i), []float32{float32(i), 0, 0, 0}))
	}

	queries := [][]float32{{0, 0, 0, 0}, {10, 0, 0, 0}, {19, 0, 0, 0}}
	results, err := idx.SearchBatch(queries, 1)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, Key(0), results[0].Keys[0])
	assert.Equal(t, Key(10), results[1].Keys[0])
	assert.Equal(t, Key(19), results[2].Keys[0])

	_, err = idx.SearchBatch([][]float32{{1, 2}}, 1)
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}
