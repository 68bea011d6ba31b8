package testutil

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/viterin/vek/vek32"

	"github.com/hupe1980/typedann/scalar"
)

// SearchResult is a ground-truth hit. ID is the vector's position in the
// data set.
type SearchResult struct {
	ID       uint64
	Distance float32
}

// RNG is a seeded, goroutine-safe random source.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
	seed uint64
}

// NewRNG creates an RNG with the given seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset rewinds the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float32 returns a pseudo-random number in [0,1).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformVectors generates vectors with values in [0,1), sharing one
// backing array.
func (r *RNG) UniformVectors(num, dims int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dims)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dims : (i+1)*dims]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}
	return vectors
}

// UnitVectors generates L2-normalized vectors drawn uniformly from the
// hypersphere.
func (r *RNG) UnitVectors(num, dims int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	for i := range num {
		vectors[i] = r.unitVectorLocked(dims)
	}
	return vectors
}

func (r *RNG) unitVectorLocked(dims int) []float32 {
	vec := make([]float32, dims)
	for j := range vec {
		vec[j] = float32(r.rand.NormFloat64())
	}
	if norm := vek32.Norm(vec); norm > 0 {
		vek32.DivNumber_Inplace(vec, norm)
	}
	return vec
}

// ClusteredVectors generates vectors scattered around clusters random unit
// centroids with Gaussian noise of the given spread.
func (r *RNG) ClusteredVectors(num, dims, clusters int, spread float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	centroids := make([][]float32, clusters)
	for i := range centroids {
		centroids[i] = r.unitVectorLocked(dims)
	}

	vectors := make([][]float32, num)
	for i := range num {
		c := centroids[i%clusters]
		vec := make([]float32, dims)
		for j := range vec {
			vec[j] = c[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}
	return vectors
}

// BitVectors generates packed binary vectors of dims bits with each bit set
// with probability one half.
func (r *RNG) BitVectors(num, dims int) [][]scalar.B1x8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]scalar.B1x8, num)
	for i := range num {
		bits := make([]bool, dims)
		for j := range bits {
			bits[j] = r.rand.IntN(2) == 1
		}
		vectors[i] = scalar.PackBits(bits)
	}
	return vectors
}

// SquaredL2 is the reference squared Euclidean distance.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Cosine is the reference cosine distance.
func Cosine(a, b []float32) float32 {
	na, nb := vek32.Norm(a), vek32.Norm(b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - vek32.Dot(a, b)/(na*nb)
}

// BruteForceSearch returns the k nearest vectors to query by squared L2.
func BruteForceSearch(vectors [][]float32, query []float32, k int) []SearchResult {
	return BruteForceSearchFunc(vectors, query, k, SquaredL2)
}

// BruteForceSearchFunc returns the k nearest vectors to query by dist.
func BruteForceSearchFunc(vectors [][]float32, query []float32, k int, dist func(a, b []float32) float32) []SearchResult {
	results := make([]SearchResult, len(vectors))
	for i, v := range vectors {
		results[i] = SearchResult{ID: uint64(i), Distance: dist(query, v)}
	}

	slices.SortStableFunc(results, func(a, b SearchResult) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})

	return results[:min(k, len(results))]
}

// ComputeRecall returns the fraction of ground-truth IDs found among the
// approximate IDs.
func ComputeRecall(groundTruth []SearchResult, approximate []uint64) float64 {
	if len(groundTruth) == 0 {
		if len(approximate) == 0 {
			return 1
		}
		return 0
	}

	found := make(map[uint64]struct{}, len(approximate))
	for _, id := range approximate {
		found[id] = struct{}{}
	}

	hits := 0
	for _, r := range groundTruth {
		if _, ok := found[r.ID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(groundTruth))
}

// AlmostEqual reports whether a and b differ by at most eps.
func AlmostEqual(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}
