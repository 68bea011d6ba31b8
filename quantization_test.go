package typedann

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/typedann/scalar"
)

func TestQuantization(t *testing.T) {
	t.Run("Float64", func(t *testing.T) {
		idx, err := TryDefault[float64, Dims4, L2sq]()
		require.NoError(t, err)
		defer idx.Close()

		assert.Equal(t, ScalarF64, idx.Quantization())
		vec := []float64{0.1, 0.2, 0.3, 0.4}
		require.NoError(t, idx.Add(1, vec))
		require.NoError(t, idx.Add(2, []float64{3, 0, 0, 0}))

		buf := make([]float64, 4)
		n, err := idx.Get(1, buf)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, vec, buf)

		m, err := idx.Search(vec, 2)
		require.NoError(t, err)
		assert.Equal(t, []Key{1, 2}, m.Keys)
		assert.InDelta(t, 0, m.Distances[0], 1e-9)
	})

	t.Run("Int8", func(t *testing.T) {
		idx, err := TryDefault[int8, Dims4, L2sq]()
		require.NoError(t, err)
		defer idx.Close()

		assert.Equal(t, ScalarI8, idx.Quantization())
		require.NoError(t, idx.Add(1, []int8{127, 0, 0, 0}))
		require.NoError(t, idx.Add(2, []int8{-127, 0, 0, 0}))

		buf := make([]int8, 4)
		_, err = idx.Get(2, buf)
		require.NoError(t, err)
		assert.Equal(t, []int8{-127, 0, 0, 0}, buf)

		m, err := idx.Search([]int8{100, 0, 0, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, []Key{1, 2}, m.Keys)
	})

	t.Run("Float16", func(t *testing.T) {
		idx, err := TryDefault[scalar.F16, Dims4, L2sq]()
		require.NoError(t, err)
		defer idx.Close()

		assert.Equal(t, ScalarF16, idx.Quantization())
		vec := make([]scalar.F16, 4)
		scalar.EncodeF16(vec, []float32{1, 0.5, -2, 0})
		require.NoError(t, idx.Add(1, vec))

		zero := make([]scalar.F16, 4)
		require.NoError(t, idx.Add(2, zero))

		buf := make([]scalar.F16, 4)
		n, err := idx.Get(1, buf)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, vec, buf)

		m, err := idx.Search(zero, 2)
		require.NoError(t, err)
		assert.Equal(t, []Key{2, 1}, m.Keys)
		assert.InDelta(t, 5.25, m.Distances[1], 1e-3)
	})

	t.Run("BFloat16", func(t *testing.T) {
		idx, err := TryDefault[scalar.BF16, Dims4, Cos]()
		require.NoError(t, err)
		defer idx.Close()

		assert.Equal(t, ScalarBF16, idx.Quantization())
		a := make([]scalar.BF16, 4)
		scalar.EncodeBF16(a, []float32{1, 0, 0, 0})
		b := make([]scalar.BF16, 4)
		scalar.EncodeBF16(b, []float32{0, 1, 0, 0})
		require.NoError(t, idx.Add(1, a))
		require.NoError(t, idx.Add(2, b))

		buf := make([]scalar.BF16, 4)
		_, err = idx.Get(2, buf)
		require.NoError(t, err)
		assert.Equal(t, b, buf)

		m, err := idx.Search(a, 2)
		require.NoError(t, err)
		assert.Equal(t, []Key{1, 2}, m.Keys)
		assert.InDelta(t, 0, m.Distances[0], 1e-3)
		assert.InDelta(t, 1, m.Distances[1], 1e-3)
	})

	t.Run("Bits", func(t *testing.T) {
		idx, err := TryDefault[scalar.B1x8, Dims16, Hamming]()
		require.NoError(t, err)
		defer idx.Close()

		assert.Equal(t, ScalarB1, idx.Quantization())
		assert.Equal(t, 2, idx.VectorLen())

		require.NoError(t, idx.Add(1, []scalar.B1x8{0xFF, 0xFF}))
		require.NoError(t, idx.Add(2, []scalar.B1x8{0x00, 0x00}))

		err = idx.Add(3, make([]scalar.B1x8, 16))
		var dm *ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)

		m, err := idx.Search([]scalar.B1x8{0xFF, 0x0F}, 2)
		require.NoError(t, err)
		assert.Equal(t, []Key{1, 2}, m.Keys)
		assert.Equal(t, []float32{4, 12}, m.Distances)

		buf := make([]scalar.B1x8, 2)
		_, err = idx.Get(1, buf)
		require.NoError(t, err)
		assert.True(t, scalar.Bit(buf, 15))
	})

	t.Run("Tanimoto", func(t *testing.T) {
		idx, err := TryDefault[scalar.B1x8, Dims8, Tanimoto]()
		require.NoError(t, err)
		defer idx.Close()

		require.NoError(t, idx.Add(1, scalar.PackBits([]bool{true, true, false, false, false, false, false, false})))

		m, err := idx.Search(scalar.PackBits([]bool{true, false, false, false, false, false, false, false}), 1)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, m.Distances[0], 1e-6)
	})
}
