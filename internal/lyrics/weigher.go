// Package lyrics assigns lyric lines to visual categories: token weighing,
// topic selection and the line assigner that combines them with a similarity metric.
package lyrics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptySubset is returned when an index range selects no token of a non-empty line.
var ErrEmptySubset = errors.New("index range selects no tokens")

// IndexRange is an ordered list of token positions to consider. Negative
// positions count from the end of the line (-1 is the last token). A nil or
// empty range considers the whole line.
type IndexRange []int

// Resolve maps the range onto a line of n tokens. Positions outside the line
// are skipped and a position that resolves twice keeps its first occurrence.
func (r IndexRange) Resolve(n int) []int {
	if len(r) == 0 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	seen := make(map[int]bool, len(r))
	out := make([]int, 0, len(r))
	for _, idx := range r {
		if idx < 0 {
			idx += n
		}
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

// Weigher assigns a multiplicative weight to every token of a line. The
// returned slice has one entry per token; entries over the considered tokens
// sum to 1 and every other entry is 0.
type Weigher interface {
	Weigh(line [][]float64) ([]float64, error)
}

// SubsetWeigher produces the k weights for a considered subset of size k.
type SubsetWeigher interface {
	WeighSubset(k int) []float64
}

// EqualWeigher gives every considered token the same weight.
type EqualWeigher struct {
	Range IndexRange
}

// NewEqualWeigher returns an EqualWeigher over r.
func NewEqualWeigher(r IndexRange) *EqualWeigher {
	return &EqualWeigher{Range: r}
}

// WeighSubset returns k weights of 1/k.
func (w *EqualWeigher) WeighSubset(k int) []float64 {
	out := make([]float64, k)
	for i := range out {
		out[i] = 1 / float64(k)
	}
	return out
}

// Weigh implements Weigher.
func (w *EqualWeigher) Weigh(line [][]float64) ([]float64, error) {
	return weighRange(len(line), w.Range, w)
}

// ConeWeigher favours both ends of the considered subset over its centre.
// Concavity is the exponent applied before renormalisation: 0 weighs
// every token equally, negative values move the emphasis to the centre.
type ConeWeigher struct {
	Range     IndexRange
	Concavity float64
}

// DefaultConcavity is the concavity used by the "cone" preset.
const DefaultConcavity = 1.0

// NewConeWeigher returns a ConeWeigher over r.
func NewConeWeigher(r IndexRange, concavity float64) *ConeWeigher {
	return &ConeWeigher{Range: r, Concavity: concavity}
}

// WeighSubset returns max((k-i)/k, (i+1)/k)^concavity for each position,
// normalised to sum to 1. The powers are taken in log space so large
// concavities cannot overflow.
func (w *ConeWeigher) WeighSubset(k int) []float64 {
	out := make([]float64, k)
	if k == 0 {
		return out
	}
	fk := float64(k)
	for i := range out {
		base := math.Max((fk-float64(i))/fk, (float64(i)+1)/fk)
		out[i] = w.Concavity * math.Log(base)
	}
	norm := floats.LogSumExp(out)
	for i := range out {
		out[i] = math.Exp(out[i] - norm)
	}
	return out
}

// Weigh implements Weigher.
func (w *ConeWeigher) Weigh(line [][]float64) ([]float64, error) {
	return weighRange(len(line), w.Range, w)
}

// weighRange scatters the subset weights back onto a line of n tokens in
// range order.
func weighRange(n int, r IndexRange, sw SubsetWeigher) ([]float64, error) {
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}
	idx := r.Resolve(n)
	if len(idx) == 0 {
		return nil, ErrEmptySubset
	}
	for i, w := range sw.WeighSubset(len(idx)) {
		out[idx[i]] = w
	}
	return out, nil
}
