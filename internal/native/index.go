package native

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/typedann/internal/conv"
	"github.com/hupe1980/typedann/internal/mmap"
	"github.com/hupe1980/typedann/internal/resource"
)

// slotOverhead approximates the per-slot bookkeeping beyond the vector bytes.
const slotOverhead = 8 + 24

// Index is an engine handle.
type Index struct {
	mu sync.RWMutex

	dims         int
	metric       MetricKind
	custom       Metric
	quant        ScalarKind
	connectivity int
	multi        bool

	expansionAdd    atomic.Int64
	expansionSearch atomic.Int64

	dist   distanceFunc
	stride int

	mmax, mmax0 int
	ml          float64
	rng         *rand.Rand

	vectors  []byte
	keys     []Key
	nodes    []node
	slots    map[Key][]uint32
	deleted  *roaring.Bitmap
	live     int
	capacity int

	entry    uint32
	maxLevel int
	hasEntry bool

	view    bool
	mapping *mmap.Mapping

	res      *resource.Controller
	reserved int64
	logger   *slog.Logger
	freed    bool
}

// New constructs an empty index.
func New(opts IndexOptions) (*Index, error) {
	opts.applyDefaults()
	if err := opts.validate("init"); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ix := &Index{
		res:    opts.Resources,
		logger: logger,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	ix.configure(opts)
	ix.expansionAdd.Store(int64(opts.ExpansionAdd))
	ix.expansionSearch.Store(int64(opts.ExpansionSearch))
	ix.clear()

	return ix, nil
}

// configure applies shape options. Callers hold the write lock or own ix.
func (ix *Index) configure(opts IndexOptions) {
	ix.dims = opts.Dimensions
	ix.metric = opts.Metric
	ix.custom = opts.CustomMetric
	ix.quant = opts.Quantization
	ix.connectivity = opts.Connectivity
	ix.multi = opts.Multi
	ix.stride = opts.Quantization.VectorBytes(opts.Dimensions)
	ix.mmax = opts.Connectivity
	ix.mmax0 = 2 * opts.Connectivity
	ix.ml = 1 / math.Log(float64(opts.Connectivity))
	ix.dist = newDistanceFunc(ix.metric, ix.custom, ix.quant, ix.dims)
}

// clear drops all content and any borrowed storage.
func (ix *Index) clear() {
	if ix.mapping != nil {
		if err := ix.mapping.Release(); err != nil {
			ix.logger.Warn("unmap failed", "error", err)
		}
		ix.mapping = nil
	}
	ix.res.Release(ix.reserved)
	ix.reserved = 0

	ix.vectors = nil
	ix.keys = nil
	ix.nodes = nil
	ix.slots = make(map[Key][]uint32)
	ix.deleted = roaring.New()
	ix.live = 0
	ix.capacity = 0
	ix.entry, ix.maxLevel, ix.hasEntry = 0, 0, false
	ix.view = false
}

func (ix *Index) check(op string) error {
	if ix.freed {
		return errorf(op, "index has been freed")
	}
	return nil
}

func (ix *Index) checkMutable(op string) error {
	if err := ix.check(op); err != nil {
		return err
	}
	if ix.view {
		return errorf(op, "index is a read-only view")
	}
	return nil
}

// Free releases all storage. The handle is unusable afterwards.
func (ix *Index) Free() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.freed {
		return
	}
	ix.clear()
	ix.freed = true
}

// Reset removes every vector but keeps the configuration.
func (ix *Index) Reset() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.check("reset"); err != nil {
		return err
	}
	ix.clear()
	return nil
}

// Reserve grows storage to hold at least n vectors.
func (ix *Index) Reserve(n int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.checkMutable("reserve"); err != nil {
		return err
	}
	return ix.grow(n)
}

func (ix *Index) grow(n int) error {
	if n <= ix.capacity {
		return nil
	}

	delta := int64(n-ix.capacity) * int64(ix.stride+slotOverhead)
	if err := ix.res.Reserve(delta); err != nil {
		return errorf("reserve", "allocation of %d slots failed: %v", n, err)
	}
	ix.reserved += delta

	vectors := make([]byte, n*ix.stride)
	copy(vectors, ix.vectors)
	ix.vectors = vectors
	ix.keys = slices.Grow(ix.keys, n-len(ix.keys))
	ix.nodes = slices.Grow(ix.nodes, n-len(ix.nodes))

	ix.logger.Debug("index storage grown", "from", ix.capacity, "to", n)
	ix.capacity = n
	return nil
}

func (ix *Index) checkVector(op string, data []byte, kind ScalarKind) error {
	if !kind.valid() {
		return errorf(op, "unsupported scalar kind %s", kind)
	}
	if want := kind.VectorBytes(ix.dims); len(data) != want {
		return errorf(op, "vector has %d bytes, want %d for %d %s dimensions", len(data), want, ix.dims, kind)
	}
	return nil
}

// Add stores data under key and links it into the graph.
func (ix *Index) Add(key Key, data []byte, kind ScalarKind) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.checkMutable("add"); err != nil {
		return err
	}
	if err := ix.checkVector("add", data, kind); err != nil {
		return err
	}
	if !ix.multi && len(ix.slots[key]) > 0 {
		return errorf("add", "duplicate key %d", key)
	}

	slot := len(ix.nodes)
	id, err := conv.ToUint32(slot)
	if err != nil || id == math.MaxUint32 {
		return errorf("add", "index is full")
	}
	if slot >= ix.capacity {
		if err := ix.grow(max(64, 2*ix.capacity)); err != nil {
			return err
		}
	}

	if kind != ix.quant {
		data = convert(kind, data, ix.quant, ix.dims)
	}
	copy(ix.vectors[slot*ix.stride:], data)
	ix.keys = append(ix.keys, key)
	ix.nodes = append(ix.nodes, node{})
	ix.slots[key] = append(ix.slots[key], id)
	ix.live++

	ix.insertSlot(id, ix.randomLevel())
	return nil
}

// Get copies the vectors stored under key into dst, encoded as kind, and
// returns how many whole vectors were written. A missing key writes nothing.
func (ix *Index) Get(key Key, dst []byte, kind ScalarKind) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := ix.check("get"); err != nil {
		return 0, err
	}
	if !kind.valid() {
		return 0, errorf("get", "unsupported scalar kind %s", kind)
	}

	size := kind.VectorBytes(ix.dims)
	slots := ix.slots[key]
	n := min(len(slots), len(dst)/size)

	for i := 0; i < n; i++ {
		v := ix.vector(slots[i])
		if kind != ix.quant {
			v = convert(ix.quant, v, kind, ix.dims)
		}
		copy(dst[i*size:], v)
	}
	return n, nil
}

// Search returns up to count approximate neighbours of query.
func (ix *Index) Search(query []byte, kind ScalarKind, count int) ([]Key, []float32, error) {
	return ix.search("search", query, kind, count, nil)
}

// FilteredSearch is Search restricted to keys accepted by filter.
func (ix *Index) FilteredSearch(query []byte, kind ScalarKind, count int, filter Filter) ([]Key, []float32, error) {
	if filter.Fn == nil {
		return nil, nil, errorf("filtered_search", "nil filter function")
	}
	return ix.search("filtered_search", query, kind, count, &filter)
}

func (ix *Index) search(op string, query []byte, kind ScalarKind, count int, filter *Filter) ([]Key, []float32, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	q, err := ix.prepareQuery(op, query, kind, count)
	if err != nil || q == nil {
		return nil, nil, err
	}

	var accept func(uint32) bool
	if filter != nil || !ix.deleted.IsEmpty() {
		accept = func(slot uint32) bool {
			if ix.deleted.Contains(slot) {
				return false
			}
			return filter == nil || filter.accept(ix.keys[slot])
		}
	}

	ep := candidate{slot: ix.entry, dist: ix.dist(q, ix.vector(ix.entry))}
	for l := ix.maxLevel; l > 0; l-- {
		ep = ix.greedyClosest(q, ep, l)
	}

	ef := max(int(ix.expansionSearch.Load()), count)
	found := ix.searchLayer(q, ep, ef, 0, accept)

	return ix.matches(found, count)
}

// prepareQuery validates a query and encodes it in the index layout. A nil
// query with a nil error means the result is empty.
func (ix *Index) prepareQuery(op string, query []byte, kind ScalarKind, count int) ([]byte, error) {
	if err := ix.check(op); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errorf(op, "negative count %d", count)
	}
	if err := ix.checkVector(op, query, kind); err != nil {
		return nil, err
	}
	if ix.dist == nil {
		return nil, errorf(op, "no metric bound")
	}
	if count == 0 || ix.live == 0 || !ix.hasEntry {
		return nil, nil
	}
	if kind != ix.quant {
		query = convert(kind, query, ix.quant, ix.dims)
	}
	return query, nil
}

func (ix *Index) matches(found []candidate, count int) ([]Key, []float32, error) {
	n := min(count, len(found))
	keys := make([]Key, n)
	dists := make([]float32, n)
	for i := 0; i < n; i++ {
		keys[i] = ix.keys[found[i].slot]
		dists[i] = found[i].dist
	}
	return keys, dists, nil
}

// ExactSearch scans every live vector.
func (ix *Index) ExactSearch(query []byte, kind ScalarKind, count int) ([]Key, []float32, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	q, err := ix.prepareQuery("exact_search", query, kind, count)
	if err != nil || q == nil {
		return nil, nil, err
	}

	top := newCandidateQueue(true, count+1)
	for slot := range ix.nodes {
		if ix.deleted.Contains(uint32(slot)) {
			continue
		}
		d := ix.dist(q, ix.vector(uint32(slot)))
		if top.Len() < count {
			top.push(candidate{slot: uint32(slot), dist: d})
			continue
		}
		if d < top.top().dist {
			top.pop()
			top.push(candidate{slot: uint32(slot), dist: d})
		}
	}

	return ix.matches(top.drainAscending(), count)
}

// Remove tombstones every vector stored under key.
func (ix *Index) Remove(key Key) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.checkMutable("remove"); err != nil {
		return 0, err
	}

	slots := ix.slots[key]
	for _, s := range slots {
		ix.deleted.Add(s)
	}
	delete(ix.slots, key)
	ix.live -= len(slots)
	return len(slots), nil
}

// Rename moves the vectors of from to to and returns how many moved.
func (ix *Index) Rename(from, to Key) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.checkMutable("rename"); err != nil {
		return 0, err
	}

	slots := ix.slots[from]
	if from == to || len(slots) == 0 {
		return len(slots), nil
	}
	if !ix.multi && len(ix.slots[to]) > 0 {
		return 0, errorf("rename", "key %d already exists", to)
	}

	for _, s := range slots {
		ix.keys[s] = to
	}
	ix.slots[to] = append(ix.slots[to], slots...)
	delete(ix.slots, from)
	return len(slots), nil
}

// Contains reports whether key has at least one vector.
func (ix *Index) Contains(key Key) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.slots[key]) > 0
}

// Count returns the number of vectors stored under key.
func (ix *Index) Count(key Key) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.slots[key])
}

// Size returns the number of live vectors.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.live
}

// Slots returns the number of occupied slots, removed vectors included.
// New vectors are appended after them.
func (ix *Index) Slots() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.nodes)
}

// Capacity returns the number of slots storage can hold without growing.
func (ix *Index) Capacity() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.capacity
}

func (ix *Index) Dimensions() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dims
}

func (ix *Index) Connectivity() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.connectivity
}

func (ix *Index) Multi() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.multi
}

func (ix *Index) MetricKind() MetricKind {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.metric
}

func (ix *Index) Quantization() ScalarKind {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.quant
}

func (ix *Index) ExpansionAdd() int { return int(ix.expansionAdd.Load()) }

func (ix *Index) ExpansionSearch() int { return int(ix.expansionSearch.Load()) }

// ChangeExpansionAdd sets the candidate list size used while linking.
func (ix *Index) ChangeExpansionAdd(n int) {
	if n <= 0 {
		n = DefaultExpansionAdd
	}
	ix.expansionAdd.Store(int64(n))
}

// ChangeExpansionSearch sets the candidate list size used while searching.
func (ix *Index) ChangeExpansionSearch(n int) {
	if n <= 0 {
		n = DefaultExpansionSearch
	}
	ix.expansionSearch.Store(int64(n))
}

// ChangeMetricKind rebinds a builtin metric. Stored vectors and links are
// kept as they are.
func (ix *Index) ChangeMetricKind(kind MetricKind) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.check("change_metric"); err != nil {
		return err
	}
	opts := ix.options()
	opts.Metric = kind
	opts.CustomMetric = Metric{}
	if err := opts.validate("change_metric"); err != nil {
		return err
	}

	ix.metric, ix.custom = kind, Metric{}
	ix.dist = newDistanceFunc(kind, Metric{}, ix.quant, ix.dims)
	return nil
}

// ChangeMetric binds a caller-defined metric.
func (ix *Index) ChangeMetric(m Metric) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.check("change_metric"); err != nil {
		return err
	}
	if !m.valid() {
		return errorf("change_metric", "nil metric function")
	}

	ix.custom = m
	ix.dist = newDistanceFunc(ix.metric, m, ix.quant, ix.dims)
	return nil
}

// MemoryUsage estimates the bytes held by the index.
func (ix *Index) MemoryUsage() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	usage := cap(ix.keys)*8 + cap(ix.nodes)*24 + int(ix.deleted.GetSizeInBytes())
	if !ix.view {
		usage += len(ix.vectors)
	}
	for i := range ix.nodes {
		for _, l := range ix.nodes[i].links {
			usage += 24 + cap(l)*4
		}
	}
	for _, s := range ix.slots {
		usage += 16 + cap(s)*4
	}
	return usage
}

// options reports the current configuration. Callers hold a lock.
func (ix *Index) options() IndexOptions {
	return IndexOptions{
		Dimensions:      ix.dims,
		Metric:          ix.metric,
		Quantization:    ix.quant,
		Connectivity:    ix.connectivity,
		ExpansionAdd:    int(ix.expansionAdd.Load()),
		ExpansionSearch: int(ix.expansionSearch.Load()),
		Multi:           ix.multi,
		CustomMetric:    ix.custom,
	}
}

// Options returns the configuration the index runs with.
func (ix *Index) Options() IndexOptions {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.options()
}
