package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viterin/vek/vek32"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(42)
	vecs := rng.UniformVectors(10, 8)

	require.Len(t, vecs, 10)
	for _, v := range vecs {
		require.Len(t, v, 8)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, float32(0))
			assert.Less(t, x, float32(1))
		}
	}
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(42)
	for _, v := range rng.UnitVectors(10, 16) {
		assert.InDelta(t, 1, vek32.Norm(v), 1e-5)
	}
}

func TestClusteredVectors(t *testing.T) {
	rng := NewRNG(42)
	vecs := rng.ClusteredVectors(20, 4, 2, 0.01)

	require.Len(t, vecs, 20)
	// Members of the same cluster stay close.
	assert.Less(t, SquaredL2(vecs[0], vecs[2]), float32(0.01))
}

func TestBitVectors(t *testing.T) {
	rng := NewRNG(42)
	vecs := rng.BitVectors(5, 20)

	require.Len(t, vecs, 5)
	for _, v := range vecs {
		assert.Len(t, v, 3)
		assert.Zero(t, v[2]&0x0F)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(7)
	first := rng.UniformVectors(3, 3)
	rng.Reset()
	assert.Equal(t, first, rng.UniformVectors(3, 3))
	assert.Equal(t, uint64(7), rng.Seed())
}

func TestBruteForceAndRecall(t *testing.T) {
	data := [][]float32{{0, 0}, {1, 0}, {3, 0}, {0, 2}}
	truth := BruteForceSearch(data, []float32{0, 0}, 3)

	require.Len(t, truth, 3)
	assert.Equal(t, []uint64{0, 1, 3}, []uint64{truth[0].ID, truth[1].ID, truth[2].ID})
	assert.Equal(t, float32(4), truth[2].Distance)

	assert.InDelta(t, 1, ComputeRecall(truth, []uint64{3, 1, 0}), 1e-9)
	assert.InDelta(t, 2.0/3, ComputeRecall(truth, []uint64{0, 1, 2}), 1e-9)
	assert.InDelta(t, 1, ComputeRecall(nil, nil), 1e-9)

	assert.True(t, AlmostEqual(1, 1.0005, 1e-3))
	assert.InDelta(t, 1, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
}
