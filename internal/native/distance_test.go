package native

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/typedann/internal/conv"
	"github.com/hupe1980/typedann/scalar"
)

func f32dist(kind MetricKind, a, b []float32) float32 {
	return newDistanceFunc(kind, Metric{}, ScalarF32, len(a))(conv.Bytes(a), conv.Bytes(b))
}

func TestFloat32Kernels(t *testing.T) {
	tests := []struct {
		name string
		kind MetricKind
		a, b []float32
		want float32
	}{
		{"ip", MetricIP, []float32{1, 0}, []float32{0.5, 0}, 0.5},
		{"l2sq", MetricL2sq, []float32{1, 2}, []float32{4, 6}, 25},
		{"cos orthogonal", MetricCos, []float32{1, 0}, []float32{0, 1}, 1},
		{"cos parallel", MetricCos, []float32{1, 1}, []float32{2, 2}, 0},
		{"cos both zero", MetricCos, []float32{0, 0}, []float32{0, 0}, 0},
		{"cos one zero", MetricCos, []float32{0, 0}, []float32{1, 0}, 1},
		{"pearson correlated", MetricPearson, []float32{1, 2, 3}, []float32{2, 4, 6}, 0},
		{"pearson anti", MetricPearson, []float32{1, 2, 3}, []float32{3, 2, 1}, 2},
		{"hamming", MetricHamming, []float32{1, 0, 1}, []float32{1, 1, 0}, 2},
		{"tanimoto", MetricTanimoto, []float32{1, 1, 0}, []float32{1, 0, 1}, 1 - 1.0/3},
		{"sorensen", MetricSorensen, []float32{1, 1, 0}, []float32{1, 0, 1}, 0.5},
		{"divergence identical", MetricDivergence, []float32{0.5, 0.5}, []float32{0.5, 0.5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, f32dist(tt.kind, tt.a, tt.b), 1e-5)
		})
	}
}

func TestCosineExample(t *testing.T) {
	q := []float32{0.5, 0.5, 0.5, 0.5}
	d1 := f32dist(MetricCos, q, []float32{0, 1, 0, 1})
	d2 := f32dist(MetricCos, q, []float32{1, 0, 1, 0})

	assert.InDelta(t, d1, d2, 1e-6)
	assert.InDelta(t, 1-1/math.Sqrt2, d1, 1e-5)
}

func TestHaversine(t *testing.T) {
	// Quarter of a great circle along the equator.
	d := f32dist(MetricHaversine, []float32{0, 0}, []float32{0, math.Pi / 2})
	assert.InDelta(t, math.Pi/2, d, 1e-5)
}

func TestDivergenceDisjoint(t *testing.T) {
	d := f32dist(MetricDivergence, []float32{1, 0}, []float32{0, 1})
	assert.InDelta(t, math.Ln2, d, 1e-5)
}

func TestFloat64Kernels(t *testing.T) {
	dist := func(kind MetricKind, a, b []float64) float32 {
		return newDistanceFunc(kind, Metric{}, ScalarF64, len(a))(conv.Bytes(a), conv.Bytes(b))
	}

	assert.InDelta(t, 25, dist(MetricL2sq, []float64{1, 2}, []float64{4, 6}), 1e-6)
	assert.InDelta(t, 1, dist(MetricCos, []float64{1, 0}, []float64{0, 1}), 1e-6)
	assert.InDelta(t, 0.5, dist(MetricIP, []float64{1, 0}, []float64{0.5, 0}), 1e-6)
	assert.InDelta(t, 2, dist(MetricHamming, []float64{1, 0, 1}, []float64{1, 1, 0}), 1e-6)
}

func TestBitKernels(t *testing.T) {
	// 10 dimensions: the last byte carries two bits, the rest is padding.
	a := []byte{0b1111_0000, 0b1100_0000}
	b := []byte{0b1010_0000, 0b0111_1111}

	dist := func(kind MetricKind) float32 {
		return newDistanceFunc(kind, Metric{}, ScalarB1, 10)(a, b)
	}

	// a = {0,1,2,3,8,9}, b = {0,2,9}
	assert.InDelta(t, 3, dist(MetricHamming), 1e-6)
	assert.InDelta(t, 1-3.0/6, dist(MetricTanimoto), 1e-6)
	assert.InDelta(t, 1-6.0/9, dist(MetricSorensen), 1e-6)

	// Builtins without a bitwise form widen the bits to floats.
	assert.InDelta(t, 3, dist(MetricL2sq), 1e-6)
}

func TestWidenedKernels(t *testing.T) {
	a := []scalar.F16{scalar.F16FromFloat32(1), scalar.F16FromFloat32(2)}
	b := []scalar.F16{scalar.F16FromFloat32(4), scalar.F16FromFloat32(6)}
	d := newDistanceFunc(MetricL2sq, Metric{}, ScalarF16, 2)(conv.Bytes(a), conv.Bytes(b))
	assert.InDelta(t, 25, d, 1e-3)

	i := newDistanceFunc(MetricCos, Metric{}, ScalarI8, 2)([]byte{127, 0}, []byte{0, 127})
	assert.InDelta(t, 1, i, 1e-6)
}

func TestCustomMetricState(t *testing.T) {
	m := Metric{
		Fn: func(a, b []byte, state any) float32 {
			return float32(len(a)+len(b)) * state.(float32)
		},
		State: float32(0.5),
	}
	d := newDistanceFunc(MetricIP, m, ScalarI8, 3)([]byte{1, 2, 3}, []byte{4, 5, 6})
	assert.InDelta(t, 3, d, 1e-6)
}
