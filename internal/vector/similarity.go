// Package vector provides word-vector similarity metrics and the category vector index.
package vector

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrZeroNorm is returned by Cosine when a vector has no direction.
	ErrZeroNorm = errors.New("zero-norm vector")
	// ErrDimensionMismatch is returned when two vectors have different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Similarity scores one word vector against every candidate vector.
// Higher scores always mean a stronger match.
type Similarity interface {
	Similarities(v []float64, candidates [][]float64) ([]float64, error)
	Name() string
}

// Cosine is the cosine of the angle between the word vector and each candidate.
type Cosine struct{}

// Name returns the preset name of the metric.
func (Cosine) Name() string { return string(MetricCosine) }

// Similarities returns dot(v, c) / (|v| |c|) for each candidate c.
func (Cosine) Similarities(v []float64, candidates [][]float64) ([]float64, error) {
	vn := floats.Norm(v, 2)
	if vn == 0 {
		return nil, fmt.Errorf("cosine: word vector: %w", ErrZeroNorm)
	}
	out := make([]float64, len(candidates))
	for j, c := range candidates {
		if len(c) != len(v) {
			return nil, fmt.Errorf("cosine: candidate %d has %d dimensions, want %d: %w", j, len(c), len(v), ErrDimensionMismatch)
		}
		cn := floats.Norm(c, 2)
		if cn == 0 {
			return nil, fmt.Errorf("cosine: candidate %d: %w", j, ErrZeroNorm)
		}
		out[j] = floats.Dot(v, c) / (vn * cn)
	}
	return out, nil
}

// Euclidean is the negated euclidean distance, so identical vectors score 0
// and every other pair scores below it.
type Euclidean struct{}

// Name returns the preset name of the metric.
func (Euclidean) Name() string { return string(MetricEuclid) }

// Similarities returns -|v - c| for each candidate c.
func (Euclidean) Similarities(v []float64, candidates [][]float64) ([]float64, error) {
	out := make([]float64, len(candidates))
	for j, c := range candidates {
		if len(c) != len(v) {
			return nil, fmt.Errorf("euclid: candidate %d has %d dimensions, want %d: %w", j, len(c), len(v), ErrDimensionMismatch)
		}
		out[j] = -floats.Distance(v, c, 2)
	}
	return out, nil
}

// ToFloat64 widens an embedding to the float64 representation used by the metrics.
func ToFloat64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

// ToFloat32 narrows a vector for storage next to model embeddings.
func ToFloat32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}
