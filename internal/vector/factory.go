package vector

import "fmt"

// Metric names a similarity preset.
type Metric string

const (
	// MetricCosine selects Cosine.
	MetricCosine Metric = "cosine"
	// MetricEuclid selects Euclidean (negated distance).
	MetricEuclid Metric = "euclid"
)

// NewSimilarity returns the similarity metric for a preset name.
// Supported names: "cosine", "euclid" (alias "euclidean").
func NewSimilarity(name string) (Similarity, error) {
	switch Metric(name) {
	case MetricCosine:
		return Cosine{}, nil
	case MetricEuclid, "euclidean":
		return Euclidean{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric: %q (supported: cosine, euclid)", name)
	}
}
