package typedann

import (
	"github.com/hupe1980/typedann/internal/conv"
	"github.com/hupe1980/typedann/internal/native"
)

// Predicate screens candidate keys in FilteredSearch.
type Predicate func(Key) bool

// filterTrampoline recovers the predicate from the erased state.
func filterTrampoline(key Key, state any) bool {
	return (*state.(*Predicate))(key)
}

func filterCallback(pred *Predicate) native.Filter {
	return native.Filter{Fn: filterTrampoline, State: pred}
}

// metricTrampoline recovers a typed distance function from the erased state
// and views the engine's bytes as T.
func metricTrampoline[T Scalar](a, b []byte, state any) float32 {
	return (*state.(*func(a, b []T) float32))(conv.Slice[T](a), conv.Slice[T](b))
}

func metricCallback[T Scalar](fn *func(a, b []T) float32) native.Metric {
	return native.Metric{Fn: metricTrampoline[T], State: fn}
}
