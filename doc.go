// Package typedann is a statically typed client for an approximate nearest
// neighbor (ANN) index.
//
// An Index is parameterized by its scalar type, its dimension and its
// metric, so vector shape and metric are fixed at compile time and checked
// once at construction:
//
//	idx, err := typedann.New[float32, typedann.Dims4, typedann.Cos](16, 128, 64, false)
//	if err != nil {
//	    return err
//	}
//	defer idx.Close()
//
//	_ = idx.Add(1, []float32{0, 1, 0, 1})
//	_ = idx.Add(2, []float32{1, 0, 1, 0})
//
//	matches, _ := idx.Search([]float32{0.5, 0.5, 0.5, 0.5}, 2)
//	for _, r := range matches.Result() {
//	    fmt.Println(r.Key, r.Distance)
//	}
//
// # Scalars
//
// Six scalar types are supported: float32, float64, int8, scalar.F16,
// scalar.BF16 and scalar.B1x8. Half precision values are 16-bit words whose
// bits are passed to the engine unchanged. A B1x8 vector of dimension D has
// ceil(D/8) elements.
//
// # Metrics
//
// Builtin metrics are zero-size types (IP, L2sq, Cos, Pearson, Haversine,
// Divergence, Hamming, Tanimoto, Sorensen). A metric type that also
// implements CustomMetric supplies its own distance function:
//
//	type Manhattan struct{}
//
//	func (Manhattan) Kind() typedann.MetricKind { return typedann.MetricUnknown }
//
//	func (Manhattan) Distance(a, b []float32) float32 {
//	    var d float32
//	    for i := range a {
//	        d += float32(math.Abs(float64(a[i] - b[i])))
//	    }
//	    return d
//	}
//
// ChangeMetric rebinds the metric of a populated index without touching the
// stored vectors or graph.
//
// # Concurrency
//
// All methods are safe for concurrent use. Reserve capacity before starting
// concurrent insertions; BatchInsert does so itself. Filter predicates and
// custom metrics run on the calling goroutine or on BatchInsert and
// SearchBatch workers and must be pure.
//
// # Views
//
// View and ViewFromBuffer serve searches straight from serialized bytes.
// File views are memory mapped and released by Close, Reset or the next
// load. Buffers passed to ViewFromBuffer are borrowed: they must outlive the
// view and must not be modified while it is in use.
package typedann
