package neighbor

import (
	"math"

	"github.com/viant/vec/search"
)

// Float is the element type a Table can store.
type Float interface {
	~float32 | ~float64
}

// DistanceFunc computes the distance between a query row and a training row.
type DistanceFunc[F Float] func(a, b []F) float64

// Euclidean returns sqrt(sum((a_i - b_i)^2)), summed left to right from zero.
// Callers guarantee equal lengths.
func Euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		// explicit conversion forbids FMA fusion; results are identical on every GOARCH
		sum += float64(d * d)
	}
	return math.Sqrt(sum)
}

// Euclidean32 returns the Euclidean distance between two float32 vectors
// using the viant/vec kernel.
func Euclidean32(a, b []float32) float64 {
	return float64(search.Float32s(a).EuclideanDistance(b))
}
