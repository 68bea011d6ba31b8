package typedann

import "github.com/hupe1980/typedann/internal/native"

// MetricKind identifies a builtin distance function.
type MetricKind = native.MetricKind

const (
	MetricUnknown    = native.MetricUnknown
	MetricIP         = native.MetricIP
	MetricL2sq       = native.MetricL2sq
	MetricCos        = native.MetricCos
	MetricPearson    = native.MetricPearson
	MetricHaversine  = native.MetricHaversine
	MetricDivergence = native.MetricDivergence
	MetricHamming    = native.MetricHamming
	MetricTanimoto   = native.MetricTanimoto
	MetricSorensen   = native.MetricSorensen
)

// MetricType fixes the metric of an Index at compile time.
type MetricType interface {
	Kind() MetricKind
}

// CustomMetric is a MetricType that computes distances itself. Distance
// receives two vectors of the index shape and may run concurrently.
type CustomMetric[T Scalar] interface {
	MetricType
	Distance(a, b []T) float32
}

type (
	// IP is inner product distance, 1 - a·b.
	IP struct{}
	// L2sq is squared Euclidean distance.
	L2sq struct{}
	// Cos is cosine distance, 1 - cos(a, b).
	Cos struct{}
	// Pearson is 1 minus the Pearson correlation.
	Pearson struct{}
	// Haversine is the great-circle angle between (lat, lon) pairs in
	// radians. It needs Dims2.
	Haversine struct{}
	// Divergence is Jensen-Shannon divergence between distributions.
	Divergence struct{}
	// Hamming counts differing dimensions.
	Hamming struct{}
	// Tanimoto is Jaccard distance over set bits.
	Tanimoto struct{}
	// Sorensen is Sørensen-Dice distance over set bits.
	Sorensen struct{}
)

func (IP) Kind() MetricKind         { return MetricIP }
func (L2sq) Kind() MetricKind       { return MetricL2sq }
func (Cos) Kind() MetricKind        { return MetricCos }
func (Pearson) Kind() MetricKind    { return MetricPearson }
func (Haversine) Kind() MetricKind  { return MetricHaversine }
func (Divergence) Kind() MetricKind { return MetricDivergence }
func (Hamming) Kind() MetricKind    { return MetricHamming }
func (Tanimoto) Kind() MetricKind   { return MetricTanimoto }
func (Sorensen) Kind() MetricKind   { return MetricSorensen }

// distanceOf returns the custom distance of M, or nil for builtin metrics.
func distanceOf[T Scalar, M MetricType]() *func(a, b []T) float32 {
	var m M
	custom, ok := any(m).(CustomMetric[T])
	if !ok {
		return nil
	}
	fn := custom.Distance
	return &fn
}
