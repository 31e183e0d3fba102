package vector

import "context"

// CategoryIndex stores one vector per category in insertion order.
// The order defines the candidate index space used by selections.
type CategoryIndex interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	// Candidates returns the category ids and their vectors in index order.
	Candidates() (ids []string, vectors [][]float64)
	Lookup(id string) ([]float32, bool)
	Search(ctx context.Context, query []float32, k int, metric Similarity) ([]*VectorResult, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Dimensions() int
	Size() int
	Close() error
}

// VectorResult is a single nearest-category hit.
type VectorResult struct {
	ID    string
	Index int
	Score float64
}
