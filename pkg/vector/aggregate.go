package vector

import (
	"fmt"
	"math"
)

// Average returns the per-dimension mean of vectors. Sums are accumulated in
// float64 before being narrowed back to float32.
func Average(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyInput
	}

	dims := len(vectors[0])
	sums := make([]float64, dims)
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, expected %d: %w", i, len(v), dims, ErrDimensionMismatch)
		}
		for j, f := range v {
			sums[j] += float64(f)
		}
	}

	avg := make([]float32, dims)
	n := float64(len(vectors))
	for j, s := range sums {
		avg[j] = float32(s / n)
	}
	return avg, nil
}

// CheckDimensions returns ErrDimensionMismatch if v does not have exactly
// dims entries.
func CheckDimensions(v []float32, dims int) error {
	if len(v) != dims {
		return fmt.Errorf("got %d dimensions, expected %d: %w", len(v), dims, ErrDimensionMismatch)
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 if
// either vector has zero magnitude or their lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
