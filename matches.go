package typedann

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// Matches holds search results as parallel slices, nearest first.
type Matches struct {
	Keys      []Key
	Distances []float32
}

// ResultElement is one search hit.
type ResultElement struct {
	Key      Key
	Distance float32
}

// Len returns the number of hits.
func (m Matches) Len() int { return len(m.Keys) }

// Result pairs keys with their distances.
func (m Matches) Result() []ResultElement {
	out := make([]ResultElement, len(m.Keys))
	for i, k := range m.Keys {
		out[i] = ResultElement{Key: k, Distance: m.Distances[i]}
	}
	return out
}

// AllowKeys returns a predicate accepting only keys in allowed.
// The bitmap must not be modified while searches use the predicate.
func AllowKeys(allowed *roaring64.Bitmap) Predicate {
	return func(k Key) bool { return allowed.Contains(k) }
}

// DenyKeys returns a predicate rejecting keys in denied.
// The bitmap must not be modified while searches use the predicate.
func DenyKeys(denied *roaring64.Bitmap) Predicate {
	return func(k Key) bool { return !denied.Contains(k) }
}
