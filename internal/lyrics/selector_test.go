package lyrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSelectors_SizeAndOrder(t *testing.T) {
	m := mat.NewDense(2, 4, []float64{
		0.1, 0.9, 0.3, 0.3,
		0.2, 0.1, 0.3, 0.8,
	})
	for _, s := range []Selector{MaxMax{}, MeanMax{}} {
		for n := 0; n <= 6; n++ {
			sel := s.Select(m, n)
			want := n
			if want > 4 {
				want = 4
			}
			assert.Len(t, sel, want, "%T n=%d", s, n)
			scores := s.(Scorer).Scores(m)
			for i := 1; i < len(sel); i++ {
				assert.GreaterOrEqual(t, scores[sel[i-1]], scores[sel[i]])
			}
		}
	}
	assert.Equal(t, []int{1, 3, 2, 0}, MaxMax{}.Select(m, 4))
	assert.Equal(t, []int{3, 1, 2, 0}, MeanMax{}.Select(m, 10))
}

func TestSelectors_TieBreakAscendingIndex(t *testing.T) {
	m := mat.NewDense(2, 5, []float64{
		0.5, 0.2, 0.5, 0.2, 0.5,
		0.5, 0.2, 0.5, 0.2, 0.5,
	})
	for _, s := range []Selector{MaxMax{}, MeanMax{}} {
		assert.Equal(t, []int{0, 2, 4, 1, 3}, s.Select(m, 5), "%T", s)
		assert.Equal(t, []int{0, 2}, s.Select(m, 2), "%T", s)
	}
}

func TestMeanMax_Scores(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{
		1, -1,
		3, -3,
	})
	assert.Equal(t, []float64{2, -2}, MeanMax{}.Scores(m))
	assert.Equal(t, []float64{3, -1}, MaxMax{}.Scores(m))
}

func TestRank_NegativeN(t *testing.T) {
	assert.Empty(t, rank([]float64{1, 2}, -1))
}

func TestNewSelector(t *testing.T) {
	s, err := NewSelector("max_max")
	require.NoError(t, err)
	assert.IsType(t, MaxMax{}, s)
	s, err = NewSelector("mean_max")
	require.NoError(t, err)
	assert.IsType(t, MeanMax{}, s)
	_, err = NewSelector("min_min")
	assert.Error(t, err)
}
