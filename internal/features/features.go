// Package features defines the sparse vector passed from the vectorizer to
// the classifier.
package features

import "math"

// A Value is one non-zero coordinate of a Vector.
type Value struct {
	Index int
	Value float64
}

// A Vector is a fixed-dimension vector of scalars stored sparsely.
// Entries are sorted by index and an absent index has value 0.
type Vector struct {
	Dim     int
	Entries []Value
}

// Len returns the dimension of v, not the number of stored entries.
func (v Vector) Len() int {
	return v.Dim
}

// At returns the value at index i.
func (v Vector) At(i int) float64 {
	lo, hi := 0, len(v.Entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case v.Entries[mid].Index == i:
			return v.Entries[mid].Value
		case v.Entries[mid].Index < i:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

// Dense expands v into a slice of length Dim.
func (v Vector) Dense() []float64 {
	res := make([]float64, v.Dim)
	for _, e := range v.Entries {
		res[e.Index] = e.Value
	}
	return res
}

// Norm returns the euclidean norm of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, e := range v.Entries {
		sum += e.Value * e.Value
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of v with a dense weight row.
// The caller guarantees len(w) >= v.Dim.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for _, e := range v.Entries {
		sum += e.Value * w[e.Index]
	}
	return sum
}
