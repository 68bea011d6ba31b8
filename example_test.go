package typedann_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/typedann"
)

// Example demonstrates adding vectors and running a nearest-neighbour search.
func Example() {
	idx, err := typedann.TryDefault[float32, typedann.Dims4, typedann.L2sq]()
	if err != nil {
		log.Fatal(err)
	}
	defer idx.Close()

	_ = idx.Add(1, []float32{0, 0, 0, 0})
	_ = idx.Add(2, []float32{1, 1, 1, 1})
	_ = idx.Add(3, []float32{5, 5, 5, 5})

	matches, err := idx.Search([]float32{1, 1, 1, 0}, 2)
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range matches.Result() {
		fmt.Printf("key=%d distance=%.1f\n", r.Key, r.Distance)
	}
	// Output:
	// key=2 distance=1.0
	// key=1 distance=3.0
}

// Example_filteredSearch restricts results to an allow-list of keys.
func Example_filteredSearch() {
	idx, err := typedann.TryDefault[float32, typedann.Dims2, typedann.L2sq]()
	if err != nil {
		log.Fatal(err)
	}
	defer idx.Close()

	for i := range 10 {
		_ = idx.Add(typedann.Key(i), []float32{float32(i), 0})
	}

	matches, err := idx.FilteredSearch([]float32{0, 0}, 3, typedann.AllowKeys(roaring64.BitmapOf(4, 6, 8)))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(matches.Keys)
	// Output: [4 6 8]
}

type chebyshev struct{}

func (chebyshev) Kind() typedann.MetricKind { return typedann.MetricUnknown }

func (chebyshev) Distance(a, b []float32) float32 {
	var d float32
	for i := range a {
		d = max(d, abs(a[i]-b[i]))
	}
	return d
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// Example_customMetric plugs a user-defined distance into the index.
func Example_customMetric() {
	idx, err := typedann.TryDefault[float32, typedann.Dims2, chebyshev]()
	if err != nil {
		log.Fatal(err)
	}
	defer idx.Close()

	_ = idx.Add(1, []float32{3, 1})
	_ = idx.Add(2, []float32{2, 2})

	matches, err := idx.Search([]float32{0, 0}, 1)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(matches.Keys[0], matches.Distances[0])
	// Output: 2 2
}

// Example_saveAndView persists an index and serves it from a memory mapping.
func Example_saveAndView() {
	dir, err := os.MkdirTemp("", "typedann")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "index.tann")

	src, err := typedann.TryDefault[float32, typedann.Dims2, typedann.Cos]()
	if err != nil {
		log.Fatal(err)
	}
	_ = src.Add(10, []float32{1, 0})
	_ = src.Add(20, []float32{0, 1})
	if err := src.Save(path); err != nil {
		log.Fatal(err)
	}
	_ = src.Close()

	view, err := typedann.TryDefault[float32, typedann.Dims2, typedann.Cos]()
	if err != nil {
		log.Fatal(err)
	}
	defer view.Close()

	if err := view.View(path); err != nil {
		log.Fatal(err)
	}

	matches, _ := view.Search([]float32{0, 2}, 1)
	fmt.Println(view.Size(), matches.Keys[0])
	// Output: 2 20
}
