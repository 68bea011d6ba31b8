package native

import (
	"math"
	"math/bits"
	"sync"

	"github.com/viterin/vek"
	"github.com/viterin/vek/vek32"

	"github.com/hupe1980/typedann/internal/conv"
)

// distanceFunc compares two vectors encoded in the index quantization.
type distanceFunc func(a, b []byte) float32

func newDistanceFunc(kind MetricKind, custom Metric, quant ScalarKind, dims int) distanceFunc {
	if custom.valid() {
		return func(a, b []byte) float32 {
			return custom.Fn(a, b, custom.State)
		}
	}

	switch quant {
	case ScalarF32:
		f := float32Kernel(kind)
		return func(a, b []byte) float32 {
			return f(conv.Slice[float32](a), conv.Slice[float32](b))
		}
	case ScalarF64:
		f := float64Kernel(kind)
		return func(a, b []byte) float32 {
			return f(conv.Slice[float64](a), conv.Slice[float64](b))
		}
	case ScalarB1:
		if bitwise := bitKernel(kind, dims); bitwise != nil {
			return bitwise
		}
	}

	// Remaining layouts are widened to float32 per comparison.
	f := float32Kernel(kind)
	pool := &sync.Pool{New: func() any {
		buf := make([]float32, 2*dims)
		return &buf
	}}
	return func(a, b []byte) float32 {
		bp := pool.Get().(*[]float32)
		x, y := (*bp)[:dims], (*bp)[dims:]
		decode(quant, a, x)
		decode(quant, b, y)
		d := f(x, y)
		pool.Put(bp)
		return d
	}
}

func float32Kernel(kind MetricKind) func(a, b []float32) float32 {
	switch kind {
	case MetricIP:
		return func(a, b []float32) float32 { return 1 - vek32.Dot(a, b) }
	case MetricL2sq:
		return l2sq32
	case MetricCos:
		return cosine32
	case MetricPearson:
		return pearson32
	case MetricHaversine:
		return haversine32
	case MetricDivergence:
		return jensenShannon32
	case MetricHamming:
		return func(a, b []float32) float32 {
			var n int
			for i := range a {
				if a[i] != b[i] {
					n++
				}
			}
			return float32(n)
		}
	case MetricTanimoto:
		return func(a, b []float32) float32 {
			inter, union := setCounts(a, b)
			if union == 0 {
				return 0
			}
			return 1 - float32(inter)/float32(union)
		}
	case MetricSorensen:
		return func(a, b []float32) float32 {
			inter, union := setCounts(a, b)
			total := union + inter
			if total == 0 {
				return 0
			}
			return 1 - 2*float32(inter)/float32(total)
		}
	default:
		return func(a, b []float32) float32 { return float32(math.NaN()) }
	}
}

func l2sq32(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cosine32(a, b []float32) float32 {
	na, nb := vek32.Norm(a), vek32.Norm(b)
	switch {
	case na == 0 && nb == 0:
		return 0
	case na == 0 || nb == 0:
		return 1
	}
	return 1 - vek32.Dot(a, b)/(na*nb)
}

func pearson32(a, b []float32) float32 {
	n := float32(len(a))
	ma, mb := vek32.Sum(a)/n, vek32.Sum(b)/n

	var cov, va, vb float32
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 1
	}
	return 1 - cov/float32(math.Sqrt(float64(va*vb)))
}

// haversine32 expects (latitude, longitude) pairs in radians and returns the
// central angle.
func haversine32(a, b []float32) float32 {
	lat1, lon1 := float64(a[0]), float64(a[1])
	lat2, lon2 := float64(b[0]), float64(b[1])

	sLat := math.Sin((lat2 - lat1) / 2)
	sLon := math.Sin((lon2 - lon1) / 2)
	h := sLat*sLat + math.Cos(lat1)*math.Cos(lat2)*sLon*sLon

	return float32(2 * math.Asin(math.Sqrt(min(1, h))))
}

func jensenShannon32(a, b []float32) float32 {
	var d float64
	for i := range a {
		p, q := float64(a[i]), float64(b[i])
		m := (p + q) / 2
		if p > 0 {
			d += p * math.Log(p/m)
		}
		if q > 0 {
			d += q * math.Log(q/m)
		}
	}
	return float32(max(0, d/2))
}

// setCounts treats positive elements as set members.
func setCounts(a, b []float32) (inter, union int) {
	for i := range a {
		x, y := a[i] > 0, b[i] > 0
		if x && y {
			inter++
		}
		if x || y {
			union++
		}
	}
	return inter, union
}

func float64Kernel(kind MetricKind) func(a, b []float64) float32 {
	switch kind {
	case MetricIP:
		return func(a, b []float64) float32 { return float32(1 - vek.Dot(a, b)) }
	case MetricL2sq:
		return func(a, b []float64) float32 {
			var sum float64
			for i := range a {
				d := a[i] - b[i]
				sum += d * d
			}
			return float32(sum)
		}
	case MetricCos:
		return func(a, b []float64) float32 {
			na, nb := vek.Norm(a), vek.Norm(b)
			switch {
			case na == 0 && nb == 0:
				return 0
			case na == 0 || nb == 0:
				return 1
			}
			return float32(1 - vek.Dot(a, b)/(na*nb))
		}
	default:
		f := float32Kernel(kind)
		return func(a, b []float64) float32 {
			x, y := make([]float32, len(a)), make([]float32, len(b))
			for i := range a {
				x[i], y[i] = float32(a[i]), float32(b[i])
			}
			return f(x, y)
		}
	}
}

// bitKernel returns popcount kernels over packed bits, or nil when kind has
// no bitwise form.
func bitKernel(kind MetricKind, dims int) distanceFunc {
	tail := byte(0xFF)
	if r := dims % 8; r != 0 {
		tail = 0xFF << (8 - r)
	}

	counts := func(a, b []byte) (diff, inter, union int) {
		last := len(a) - 1
		for i := range a {
			x, y := a[i], b[i]
			if i == last {
				x &= tail
				y &= tail
			}
			diff += bits.OnesCount8(x ^ y)
			inter += bits.OnesCount8(x & y)
			union += bits.OnesCount8(x | y)
		}
		return diff, inter, union
	}

	switch kind {
	case MetricHamming:
		return func(a, b []byte) float32 {
			diff, _, _ := counts(a, b)
			return float32(diff)
		}
	case MetricTanimoto:
		return func(a, b []byte) float32 {
			_, inter, union := counts(a, b)
			if union == 0 {
				return 0
			}
			return 1 - float32(inter)/float32(union)
		}
	case MetricSorensen:
		return func(a, b []byte) float32 {
			_, inter, union := counts(a, b)
			total := union + inter
			if total == 0 {
				return 0
			}
			return 1 - 2*float32(inter)/float32(total)
		}
	default:
		return nil
	}
}
