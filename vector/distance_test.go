package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{1, 0}

	// Orthogonal vectors -> similarity 0
	if sim, err := CosineSimilarity(a, b); err != nil || sim != 0 {
		t.Fatalf("CosineSimilarity(a,b) = %v, %v; want 0, nil", sim, err)
	}

	// Identical vectors -> similarity 1
	if sim, err := CosineSimilarity(a, c); err != nil || sim != 1 {
		t.Fatalf("CosineSimilarity(a,c) = %v, %v; want 1, nil", sim, err)
	}

	// Mismatched lengths and zero vectors are errors.
	if _, err := CosineSimilarity(a, []float32{1, 0, 0}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
	if _, err := CosineSimilarity(a, []float32{0, 0}); err == nil {
		t.Fatalf("expected zero-magnitude error")
	}
}

func TestMagnitudeAndIsUsable(t *testing.T) {
	if m := Magnitude([]float32{3, 4}); math.Abs(float64(m)-5) > 1e-6 {
		t.Fatalf("Magnitude(3,4) = %v, want 5", m)
	}
	if Magnitude(nil) != 0 {
		t.Fatalf("Magnitude(nil) != 0")
	}
	if !IsUsable([]float32{0.5, 0.5}) {
		t.Fatalf("expected usable vector")
	}
	if IsUsable([]float32{0, 0}) {
		t.Fatalf("zero vector must not be usable")
	}
	if IsUsable([]float32{float32(math.NaN()), 1}) {
		t.Fatalf("NaN vector must not be usable")
	}
}
