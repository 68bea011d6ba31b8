package typedann

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/typedann/internal/native"
	"github.com/hupe1980/typedann/internal/resource"
)

// Index is an ANN index over vectors of D elements of type T compared by M.
type Index[T Scalar, D Dimension, M MetricType] struct {
	handle *native.Index
	vt     vectorType[T]
	dims   int
	vlen   int

	// distance is the custom metric of M, nil for builtins. The engine
	// reaches it through metricTrampoline.
	distance *func(a, b []T) float32

	opts   options
	closed atomic.Bool
}

// New creates an empty index. Zero connectivity or expansion values select
// the engine defaults.
func New[T Scalar, D Dimension, M MetricType](connectivity, expansionAdd, expansionSearch int, multi bool, optFns ...Option) (*Index[T, D, M], error) {
	o := applyOptions(optFns)

	var (
		d D
		m M
	)

	vt := newVectorType[T]()
	distance := distanceOf[T, M]()

	nopts := native.IndexOptions{
		Dimensions:      d.Dimensions(),
		Metric:          m.Kind(),
		Quantization:    vt.quantType(),
		Connectivity:    connectivity,
		ExpansionAdd:    expansionAdd,
		ExpansionSearch: expansionSearch,
		Multi:           multi,
		Logger:          o.logger.Logger,
		Seed:            o.seed,
	}
	if distance != nil {
		nopts.CustomMetric = metricCallback(distance)
	}
	if o.memoryLimit > 0 {
		nopts.Resources = resource.NewController(resource.Limits{MemoryBytes: o.memoryLimit})
	}

	h, err := native.New(nopts)
	if err != nil {
		return nil, translateError(err)
	}

	o.logger.Debug("index created",
		"dimensions", nopts.Dimensions,
		"metric", nopts.Metric,
		"quantization", nopts.Quantization,
		"custom_metric", distance != nil,
	)

	return &Index[T, D, M]{
		handle:   h,
		vt:       vt,
		dims:     nopts.Dimensions,
		vlen:     vectorLen(vt.quantType(), nopts.Dimensions),
		distance: distance,
		opts:     o,
	}, nil
}

// TryDefault creates an index with default connectivity and expansion
// values and a single vector per key.
func TryDefault[T Scalar, D Dimension, M MetricType](optFns ...Option) (*Index[T, D, M], error) {
	return New[T, D, M](0, 0, 0, false, optFns...)
}

// ChangeMetric rebinds idx to metric NM and returns the new typed index.
// Stored vectors and the graph are kept; search quality under the new
// metric is not revalidated. idx is consumed and returns ErrClosed
// afterwards.
func ChangeMetric[NM MetricType, T Scalar, D Dimension, M MetricType](idx *Index[T, D, M]) (*Index[T, D, NM], error) {
	if idx.closed.Load() {
		return nil, ErrClosed
	}

	var nm NM
	distance := distanceOf[T, NM]()
	if err := idx.vt.changeMetric(idx.handle, nm.Kind(), distance); err != nil {
		return nil, translateError(err)
	}

	if !idx.closed.CompareAndSwap(false, true) {
		return nil, ErrClosed
	}

	idx.opts.logger.Debug("metric changed", "metric", nm.Kind(), "custom_metric", distance != nil)

	return &Index[T, D, NM]{
		handle:   idx.handle,
		vt:       idx.vt,
		dims:     idx.dims,
		vlen:     idx.vlen,
		distance: distance,
		opts:     idx.opts,
	}, nil
}

// Close releases the engine handle. It is idempotent.
func (idx *Index[T, D, M]) Close() error {
	if idx == nil || idx.closed.Swap(true) {
		return nil
	}
	idx.handle.Free()
	return nil
}

func (idx *Index[T, D, M]) checkVector(v []T) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	if len(v) != idx.vlen {
		return &ErrDimensionMismatch{Expected: idx.vlen, Actual: len(v)}
	}
	return nil
}

func (idx *Index[T, D, M]) add(key Key, vector []T) error {
	if err := idx.checkVector(vector); err != nil {
		return err
	}
	return translateError(idx.vt.add(idx.handle, key, vector))
}

// Add stores vector under key. Without multi, adding an existing key fails.
func (idx *Index[T, D, M]) Add(key Key, vector []T) error {
	start := time.Now()
	err := idx.add(key, vector)
	idx.opts.metricsCollector.RecordInsert(time.Since(start), err)
	idx.opts.logger.LogInsert(key, err)
	return err
}

// Get copies the vectors stored under key into buffer and returns how many
// whole vectors were written. A missing key yields 0 and no error.
func (idx *Index[T, D, M]) Get(key Key, buffer []T) (int, error) {
	if idx.closed.Load() {
		return 0, ErrClosed
	}
	n, err := idx.vt.get(idx.handle, key, buffer)
	return n, translateError(err)
}

// Search returns up to count approximate nearest neighbours of query,
// nearest first. Recall depends on ExpansionSearch.
func (idx *Index[T, D, M]) Search(query []T, count int) (Matches, error) {
	return idx.runSearch(query, count, idx.vt.search)
}

// FilteredSearch is Search restricted to keys accepted by predicate. The
// predicate may be called for more keys than count and must be safe for
// concurrent use.
func (idx *Index[T, D, M]) FilteredSearch(query []T, count int, predicate Predicate) (Matches, error) {
	return idx.runSearch(query, count, func(h *native.Index, q []T, n int) ([]Key, []float32, error) {
		if predicate == nil {
			return nil, nil, ErrNilPredicate
		}
		return idx.vt.filteredSearch(h, q, n, filterCallback(&predicate))
	})
}

// ExactSearch scans every stored vector instead of walking the graph.
func (idx *Index[T, D, M]) ExactSearch(query []T, count int) (Matches, error) {
	return idx.runSearch(query, count, idx.vt.exactSearch)
}

type searchFunc[T Scalar] func(h *native.Index, q []T, count int) ([]Key, []float32, error)

func (idx *Index[T, D, M]) runSearch(query []T, count int, fn searchFunc[T]) (Matches, error) {
	start := time.Now()

	m, err := idx.search(query, count, fn)

	idx.opts.metricsCollector.RecordSearch(count, time.Since(start), err)
	idx.opts.logger.LogSearch(count, m.Len(), err)
	return m, err
}

func (idx *Index[T, D, M]) search(query []T, count int, fn searchFunc[T]) (Matches, error) {
	if err := idx.checkVector(query); err != nil {
		return Matches{}, err
	}
	if count < 0 {
		return Matches{}, ErrInvalidCount
	}
	if count == 0 {
		return Matches{Keys: []Key{}, Distances: []float32{}}, nil
	}

	keys, dists, err := fn(idx.handle, query, count)
	if err != nil {
		return Matches{}, translateError(err)
	}
	return Matches{Keys: keys, Distances: dists}, nil
}

// Reserve grows storage for at least n vectors. Call it before concurrent
// insertions, not during them.
func (idx *Index[T, D, M]) Reserve(n int) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	return translateError(idx.handle.Reserve(n))
}

// Remove deletes every vector stored under key and returns how many were
// removed.
func (idx *Index[T, D, M]) Remove(key Key) (int, error) {
	if idx.closed.Load() {
		return 0, ErrClosed
	}

	start := time.Now()
	n, err := idx.handle.Remove(key)
	err = translateError(err)

	idx.opts.metricsCollector.RecordRemove(time.Since(start), err)
	idx.opts.logger.LogRemove(key, n, err)
	return n, err
}

// Rename moves the vectors of from to to and returns how many moved.
// Without multi, renaming onto an existing key fails.
func (idx *Index[T, D, M]) Rename(from, to Key) (int, error) {
	if idx.closed.Load() {
		return 0, ErrClosed
	}
	n, err := idx.handle.Rename(from, to)
	return n, translateError(err)
}

// Contains reports whether key has at least one vector.
func (idx *Index[T, D, M]) Contains(key Key) bool {
	if idx.closed.Load() {
		return false
	}
	return idx.handle.Contains(key)
}

// Count returns the number of vectors stored under key.
func (idx *Index[T, D, M]) Count(key Key) int {
	if idx.closed.Load() {
		return 0
	}
	return idx.handle.Count(key)
}

// Reset removes every vector and releases borrowed or mapped storage.
func (idx *Index[T, D, M]) Reset() error {
	if idx.closed.Load() {
		return ErrClosed
	}
	return translateError(idx.handle.Reset())
}

// Dimensions returns D.
func (idx *Index[T, D, M]) Dimensions() int { return idx.dims }

// VectorLen returns the number of T elements per vector, ceil(D/8) for
// B1x8 and D otherwise.
func (idx *Index[T, D, M]) VectorLen() int { return idx.vlen }

// Connectivity returns the graph degree per node.
func (idx *Index[T, D, M]) Connectivity() int { return idx.handle.Connectivity() }

// ExpansionAdd returns the candidate list size used while inserting.
func (idx *Index[T, D, M]) ExpansionAdd() int { return idx.handle.ExpansionAdd() }

// ExpansionSearch returns the candidate list size used while searching.
func (idx *Index[T, D, M]) ExpansionSearch() int { return idx.handle.ExpansionSearch() }

// ChangeExpansionAdd sets the insertion candidate list size.
func (idx *Index[T, D, M]) ChangeExpansionAdd(n int) { idx.handle.ChangeExpansionAdd(n) }

// ChangeExpansionSearch sets the search candidate list size.
func (idx *Index[T, D, M]) ChangeExpansionSearch(n int) { idx.handle.ChangeExpansionSearch(n) }

// Multi reports whether a key may hold several vectors.
func (idx *Index[T, D, M]) Multi() bool { return idx.handle.Multi() }

// MetricKind returns the metric kind the engine is bound to.
func (idx *Index[T, D, M]) MetricKind() MetricKind { return idx.handle.MetricKind() }

// Quantization returns the scalar kind of T.
func (idx *Index[T, D, M]) Quantization() ScalarKind { return idx.vt.quantType() }

// Size returns the number of stored vectors.
func (idx *Index[T, D, M]) Size() int { return idx.handle.Size() }

// Capacity returns the number of vectors storage holds without growing.
func (idx *Index[T, D, M]) Capacity() int { return idx.handle.Capacity() }

// MemoryUsage estimates the bytes held by the index.
func (idx *Index[T, D, M]) MemoryUsage() int { return idx.handle.MemoryUsage() }

// SerializedLength returns the size of the buffer SaveToBuffer needs.
func (idx *Index[T, D, M]) SerializedLength() int { return idx.handle.SerializedLength() }

// Options returns the configuration the index runs with.
func (idx *Index[T, D, M]) Options() IndexOptions {
	return fromNativeOptions(idx.handle.Options())
}
