package vector

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine_SelfIsOne(t *testing.T) {
	v := []float64{0.3, -1.2, 4.5, 0.01}
	got, err := Cosine{}.Similarities(v, [][]float64{v})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[0], 1e-12)
}

func TestCosine_Values(t *testing.T) {
	v := []float64{1, 0}
	got, err := Cosine{}.Similarities(v, [][]float64{{0, 1}, {-1, 0}, {1, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got[0], 1e-12)
	assert.InDelta(t, -1.0, got[1], 1e-12)
	assert.InDelta(t, 1/math.Sqrt2, got[2], 1e-12)
}

func TestCosine_ZeroNorm(t *testing.T) {
	_, err := Cosine{}.Similarities([]float64{0, 0}, [][]float64{{1, 0}})
	assert.True(t, errors.Is(err, ErrZeroNorm))

	_, err = Cosine{}.Similarities([]float64{1, 0}, [][]float64{{1, 0}, {0, 0}})
	assert.True(t, errors.Is(err, ErrZeroNorm))
}

func TestSimilarity_DimensionMismatch(t *testing.T) {
	for _, sim := range []Similarity{Cosine{}, Euclidean{}} {
		_, err := sim.Similarities([]float64{1, 0}, [][]float64{{1, 0, 0}})
		assert.True(t, errors.Is(err, ErrDimensionMismatch), sim.Name())
	}
}

func TestEuclidean_SelfIsMaximal(t *testing.T) {
	v := []float64{1, 2, 3}
	candidates := [][]float64{{1, 2, 3.5}, v, {-1, 0, 2}}
	got, err := Euclidean{}.Similarities(v, candidates)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[1])
	assert.InDelta(t, -0.5, got[0], 1e-12)
	for j, s := range got {
		assert.LessOrEqual(t, s, got[1], "candidate %d", j)
	}
}

func TestEuclidean_ZeroVectorAllowed(t *testing.T) {
	got, err := Euclidean{}.Similarities([]float64{0, 0}, [][]float64{{3, 4}})
	require.NoError(t, err)
	assert.InDelta(t, -5.0, got[0], 1e-12)
}

func TestFloatConversions(t *testing.T) {
	x := []float32{1.5, -2, 0}
	back := ToFloat32(ToFloat64(x))
	assert.Equal(t, x, back)
}
