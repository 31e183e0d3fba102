package lyrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/hyperjump/kashi/internal/vector"
	"gonum.org/v1/gonum/mat"
)

// ErrNoCandidates is returned when a line is assigned against an empty candidate set.
var ErrNoCandidates = errors.New("no candidate vectors")

// Weighing preset names.
const (
	WeighingEqual = "equal"
	WeighingCone  = "cone"
	WeighingFirst = "first"
	WeighingLast  = "last"
)

// Options configures an Assigner. Preset names select the built-in strategies;
// a non-nil Weigher, Metric or Selector replaces the preset for its role.
type Options struct {
	Weighing   string     `yaml:"weighing" json:"weighing,omitempty"`
	Similarity string     `yaml:"similarity" json:"similarity,omitempty"`
	Selection  string     `yaml:"selection" json:"selection,omitempty"`
	IdxRange   IndexRange `yaml:"idx_range" json:"idx_range,omitempty"`
	// Concavity applies to the cone weighing only. Nil means DefaultConcavity.
	Concavity *float64 `yaml:"concavity" json:"concavity,omitempty"`

	Weigher  Weigher           `yaml:"-" json:"-"`
	Metric   vector.Similarity `yaml:"-" json:"-"`
	Selector Selector          `yaml:"-" json:"-"`
}

// DefaultOptions returns equal weighing, cosine similarity and max_max selection.
func DefaultOptions() Options {
	return Options{
		Weighing:   WeighingEqual,
		Similarity: string(vector.MetricCosine),
		Selection:  SelectionMaxMax,
	}
}

// Selection is a ranked list of candidate indices, best first.
type Selection []int

// Result is a selection together with the aggregate score of every candidate.
type Result struct {
	Selection Selection
	// Scores holds one aggregate score per candidate when the selector is a Scorer.
	Scores []float64
	// Empty is set when the line had no token vectors; every candidate then scores 0.
	Empty bool
}

// Assigner combines a weigher, a similarity metric and a selector into a
// single line-to-category decision. It holds no mutable state.
type Assigner struct {
	weigher  Weigher
	metric   vector.Similarity
	selector Selector
}

// NewAssigner builds an Assigner from opts. Empty preset names fall back to DefaultOptions.
func NewAssigner(opts Options) (*Assigner, error) {
	def := DefaultOptions()
	if opts.Weighing == "" {
		opts.Weighing = def.Weighing
	}
	if opts.Similarity == "" {
		opts.Similarity = def.Similarity
	}
	if opts.Selection == "" {
		opts.Selection = def.Selection
	}

	a := &Assigner{weigher: opts.Weigher, metric: opts.Metric, selector: opts.Selector}
	if a.weigher == nil {
		w, err := newWeigher(opts)
		if err != nil {
			return nil, err
		}
		a.weigher = w
	}
	if a.metric == nil {
		m, err := vector.NewSimilarity(opts.Similarity)
		if err != nil {
			return nil, err
		}
		a.metric = m
	}
	if a.selector == nil {
		s, err := NewSelector(opts.Selection)
		if err != nil {
			return nil, err
		}
		a.selector = s
	}
	return a, nil
}

func newWeigher(opts Options) (Weigher, error) {
	switch opts.Weighing {
	case WeighingEqual, "eq":
		return NewEqualWeigher(opts.IdxRange), nil
	case WeighingCone:
		concavity := DefaultConcavity
		if opts.Concavity != nil {
			concavity = *opts.Concavity
		}
		if math.IsNaN(concavity) || math.IsInf(concavity, 0) {
			return nil, fmt.Errorf("concavity must be a finite number, got %v", concavity)
		}
		return NewConeWeigher(opts.IdxRange, concavity), nil
	case WeighingFirst, WeighingLast:
		if len(opts.IdxRange) > 0 {
			return nil, fmt.Errorf("weighing %q does not take an idx_range", opts.Weighing)
		}
		if opts.Weighing == WeighingFirst {
			return NewEqualWeigher(IndexRange{0}), nil
		}
		return NewEqualWeigher(IndexRange{-1}), nil
	default:
		return nil, fmt.Errorf("unknown weighing: %q (supported: %s, %s, %s, %s)",
			opts.Weighing, WeighingEqual, WeighingCone, WeighingFirst, WeighingLast)
	}
}

// Metric returns the similarity metric in use.
func (a *Assigner) Metric() vector.Similarity { return a.metric }

// AssignLine returns the indices of the n candidates that best match line.
func (a *Assigner) AssignLine(line, candidates [][]float64, n int) (Selection, error) {
	res, err := a.AssignLineScores(line, candidates, n)
	if err != nil {
		return nil, err
	}
	return res.Selection, nil
}

// AssignLineScores is AssignLine that also reports per-candidate scores.
//
// Only tokens with a non-zero weight enter the selector, so tokens outside
// the index range cannot contribute a spurious score of 0.
func (a *Assigner) AssignLineScores(line, candidates [][]float64, n int) (*Result, error) {
	if n < 0 {
		return nil, fmt.Errorf("n must be non-negative, got %d", n)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	weights, err := a.weigher.Weigh(line)
	if err != nil {
		return nil, fmt.Errorf("weigh line: %w", err)
	}
	if len(weights) != len(line) {
		return nil, fmt.Errorf("weigher returned %d weights for %d tokens", len(weights), len(line))
	}

	if len(line) == 0 {
		scores := make([]float64, len(candidates))
		return &Result{Selection: rank(scores, n), Scores: scores, Empty: true}, nil
	}

	rows := make([]int, 0, len(line))
	for i, w := range weights {
		if w != 0 {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("weigh line: all weights are zero: %w", ErrEmptySubset)
	}

	sims := mat.NewDense(len(rows), len(candidates), nil)
	for r, i := range rows {
		row, err := a.metric.Similarities(line[i], candidates)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		if len(row) != len(candidates) {
			return nil, fmt.Errorf("token %d: metric returned %d scores for %d candidates", i, len(row), len(candidates))
		}
		sims.SetRow(r, row)
	}

	var weighted mat.Dense
	weighted.Apply(func(r, _ int, v float64) float64 {
		return weights[rows[r]] * v
	}, sims)

	res := &Result{Selection: a.selector.Select(&weighted, n)}
	if s, ok := a.selector.(Scorer); ok {
		res.Scores = s.Scores(&weighted)
	}
	for _, j := range res.Selection {
		if j < 0 || j >= len(candidates) {
			return nil, fmt.Errorf("selector returned index %d outside [0, %d)", j, len(candidates))
		}
	}
	return res, nil
}
