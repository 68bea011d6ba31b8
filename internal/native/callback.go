package native

// Filter screens candidate keys during FilteredSearch. Fn is called with
// State on every visited candidate, possibly from several goroutines, and
// must not retain State past the call.
type Filter struct {
	Fn    func(key Key, state any) bool
	State any
}

func (f Filter) accept(key Key) bool {
	return f.Fn(key, f.State)
}

// Metric is a caller-defined distance. a and b hold vectors in the index
// quantization.
type Metric struct {
	Fn    func(a, b []byte, state any) float32
	State any
}

func (m Metric) valid() bool { return m.Fn != nil }
