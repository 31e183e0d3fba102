package lyrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Selector reduces a weighted tokens x candidates matrix to at most n
// candidate indices, best first.
type Selector interface {
	Select(weighted mat.Matrix, n int) []int
}

// Scorer is implemented by selectors that rank candidates by a single
// aggregate score. The assigner reports these scores alongside the selection.
type Scorer interface {
	Scores(weighted mat.Matrix) []float64
}

// Selection preset names.
const (
	SelectionMaxMax  = "max_max"
	SelectionMeanMax = "mean_max"
)

// MaxMax ranks candidates by their best weighted score over all tokens.
type MaxMax struct{}

// Scores returns the column maxima.
func (MaxMax) Scores(weighted mat.Matrix) []float64 {
	return reduceColumns(weighted, floats.Max)
}

// Select implements Selector.
func (s MaxMax) Select(weighted mat.Matrix, n int) []int {
	return rank(s.Scores(weighted), n)
}

// MeanMax ranks candidates by their mean weighted score over all tokens.
type MeanMax struct{}

// Scores returns the column means.
func (MeanMax) Scores(weighted mat.Matrix) []float64 {
	return reduceColumns(weighted, func(col []float64) float64 {
		return floats.Sum(col) / float64(len(col))
	})
}

// Select implements Selector.
func (s MeanMax) Select(weighted mat.Matrix, n int) []int {
	return rank(s.Scores(weighted), n)
}

// NewSelector returns the selector for a preset name.
func NewSelector(name string) (Selector, error) {
	switch name {
	case SelectionMaxMax:
		return MaxMax{}, nil
	case SelectionMeanMax:
		return MeanMax{}, nil
	default:
		return nil, fmt.Errorf("unknown selection: %q (supported: %s, %s)", name, SelectionMaxMax, SelectionMeanMax)
	}
}

func reduceColumns(m mat.Matrix, reduce func([]float64) float64) []float64 {
	_, c := m.Dims()
	out := make([]float64, c)
	var col []float64
	for j := 0; j < c; j++ {
		col = mat.Col(col, j, m)
		out[j] = reduce(col)
	}
	return out
}

// rank orders candidate indices by descending score, ties by ascending
// index, and keeps at most n of them.
func rank(scores []float64, n int) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if n < 0 {
		n = 0
	}
	if n > len(order) {
		n = len(order)
	}
	return order[:n]
}
