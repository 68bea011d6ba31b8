package typedann

import (
	"github.com/hupe1980/typedann/internal/conv"
	"github.com/hupe1980/typedann/internal/native"
	"github.com/hupe1980/typedann/scalar"
)

// vectorType maps typed vectors onto engine calls for one scalar type.
type vectorType[T Scalar] interface {
	quantType() ScalarKind
	add(h *native.Index, key Key, v []T) error
	get(h *native.Index, key Key, buf []T) (int, error)
	search(h *native.Index, q []T, count int) ([]Key, []float32, error)
	filteredSearch(h *native.Index, q []T, count int, f native.Filter) ([]Key, []float32, error)
	exactSearch(h *native.Index, q []T, count int) ([]Key, []float32, error)
	changeMetric(h *native.Index, kind MetricKind, custom *func(a, b []T) float32) error
}

func newVectorType[T Scalar]() vectorType[T] {
	var zero T
	switch any(zero).(type) {
	case float32:
		return rawVector[T]{kind: ScalarF32}
	case float64:
		return rawVector[T]{kind: ScalarF64}
	case int8:
		return rawVector[T]{kind: ScalarI8}
	case scalar.B1x8:
		return rawVector[T]{kind: ScalarB1}
	case scalar.F16:
		return any(halfVector[scalar.F16]{kind: ScalarF16, words: scalar.F16sToInt16s}).(vectorType[T])
	case scalar.BF16:
		return any(halfVector[scalar.BF16]{kind: ScalarBF16, words: scalar.BF16sToInt16s}).(vectorType[T])
	}
	panic("typedann: unreachable scalar type")
}

// vectorLen is the number of T elements in one vector of dims dimensions.
func vectorLen(kind ScalarKind, dims int) int {
	if kind == ScalarB1 {
		return scalar.B1Bytes(dims)
	}
	return dims
}

func changeMetric[T Scalar](h *native.Index, kind MetricKind, custom *func(a, b []T) float32) error {
	if custom != nil {
		return h.ChangeMetric(metricCallback(custom))
	}
	return h.ChangeMetricKind(kind)
}

// rawVector passes element bytes straight through.
type rawVector[T Scalar] struct {
	kind ScalarKind
}

func (r rawVector[T]) quantType() ScalarKind { return r.kind }

func (r rawVector[T]) add(h *native.Index, key Key, v []T) error {
	return h.Add(key, conv.Bytes(v), r.kind)
}

func (r rawVector[T]) get(h *native.Index, key Key, buf []T) (int, error) {
	return h.Get(key, conv.Bytes(buf), r.kind)
}

func (r rawVector[T]) search(h *native.Index, q []T, count int) ([]Key, []float32, error) {
	return h.Search(conv.Bytes(q), r.kind, count)
}

func (r rawVector[T]) filteredSearch(h *native.Index, q []T, count int, f native.Filter) ([]Key, []float32, error) {
	return h.FilteredSearch(conv.Bytes(q), r.kind, count, f)
}

func (r rawVector[T]) exactSearch(h *native.Index, q []T, count int) ([]Key, []float32, error) {
	return h.ExactSearch(conv.Bytes(q), r.kind, count)
}

func (r rawVector[T]) changeMetric(h *native.Index, kind MetricKind, custom *func(a, b []T) float32) error {
	return changeMetric(h, kind, custom)
}

// halfVector reinterprets 16-bit floats as the int16 words the engine
// accepts. No value conversion takes place.
type halfVector[H scalar.F16 | scalar.BF16] struct {
	kind  ScalarKind
	words func([]H) []int16
}

func (hv halfVector[H]) bytes(v []H) []byte {
	return conv.Bytes(hv.words(v))
}

func (hv halfVector[H]) quantType() ScalarKind { return hv.kind }

func (hv halfVector[H]) add(h *native.Index, key Key, v []H) error {
	return h.Add(key, hv.bytes(v), hv.kind)
}

func (hv halfVector[H]) get(h *native.Index, key Key, buf []H) (int, error) {
	return h.Get(key, hv.bytes(buf), hv.kind)
}

func (hv halfVector[H]) search(h *native.Index, q []H, count int) ([]Key, []float32, error) {
	return h.Search(hv.bytes(q), hv.kind, count)
}

func (hv halfVector[H]) filteredSearch(h *native.Index, q []H, count int, f native.Filter) ([]Key, []float32, error) {
	return h.FilteredSearch(hv.bytes(q), hv.kind, count, f)
}

func (hv halfVector[H]) exactSearch(h *native.Index, q []H, count int) ([]Key, []float32, error) {
	return h.ExactSearch(hv.bytes(q), hv.kind, count)
}

func (hv halfVector[H]) changeMetric(h *native.Index, kind MetricKind, custom *func(a, b []H) float32) error {
	return changeMetric(h, kind, custom)
}
