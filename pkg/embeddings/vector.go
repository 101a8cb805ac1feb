// Package embeddings provides math on embedding vectors (L2 normalization, cosine similarity)
// and their compact binary encoding.
package embeddings

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of different length are compared.
var ErrDimensionMismatch = errors.New("embeddings: vector dimension mismatch")

// Magnitude returns the L2 norm of the vector.
func Magnitude(vector []float32) float64 {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	return math.Sqrt(sumSquares)
}

// NormalizeL2 scales the vector in place to unit length. A zero vector is left unchanged.
func NormalizeL2(vector []float32) {
	magnitude := Magnitude(vector)
	if magnitude == 0 {
		return
	}

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|) clamped to [-1, 1].
// If either vector has zero magnitude the similarity is 0. Vectors of different
// length are rejected with ErrDimensionMismatch.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, sumA, sumB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		sumA += x * x
		sumB += y * y
	}

	if sumA == 0 || sumB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(sumA) * math.Sqrt(sumB))

	// float rounding can push |a|==|b| slightly past 1
	return math.Max(-1, math.Min(1, sim)), nil
}
