package vector

import (
	"errors"
	"fmt"
	"math"

	"github.com/viant/vec/search"
)

var errZeroMagnitude = errors.New("vector: zero-magnitude vector")

func samePair(op string, a, b []float32) error {
	if len(a) != len(b) {
		return fmt.Errorf("vector: %s dimension mismatch: %d vs %d", op, len(a), len(b))
	}
	if len(a) == 0 {
		return fmt.Errorf("vector: %s on empty vectors", op)
	}
	return nil
}

// CosineSimilarity scores a against b in [-1, 1]. It accumulates in float64
// so identical inputs score exactly 1 and results do not depend on the
// order candidates are scored in. Mismatched lengths, empty vectors and
// zero-magnitude vectors are errors.
func CosineSimilarity(a, b []float32) (float64, error) {
	if err := samePair("cosine similarity", a, b); err != nil {
		return 0, err
	}
	var dot, aa, bb float64
	for i, x := range a {
		y := float64(b[i])
		dot += float64(x) * y
		aa += float64(x) * float64(x)
		bb += y * y
	}
	if aa == 0 || bb == 0 {
		return 0, errZeroMagnitude
	}
	return dot / (math.Sqrt(aa) * math.Sqrt(bb)), nil
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float32) float32 {
	if len(v) == 0 {
		return 0
	}
	return search.Float32s(v).Magnitude()
}

// IsUsable reports whether v can be scored: non-empty, finite and not the
// zero vector.
func IsUsable(v []float32) bool {
	for _, x := range v {
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return Magnitude(v) > 0
}
