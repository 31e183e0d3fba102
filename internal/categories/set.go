package categories

import (
	"context"

	"github.com/hyperjump/kashi/internal/vector"
)

// Set is a built taxonomy: categories in candidate order with their vectors.
// A Set is read-only once created.
type Set struct {
	index      *vector.MemoryIndex
	byID       map[string]Category
	ids        []string
	candidates [][]float64
}

// NewSet pairs an index with category metadata. Categories missing from the
// index are ignored; index entries without metadata keep an empty name.
func NewSet(index *vector.MemoryIndex, cats []Category) *Set {
	ids, candidates := index.Candidates()
	byID := make(map[string]Category, len(ids))
	meta := make(map[string]Category, len(cats))
	for _, c := range cats {
		meta[c.ID] = c
	}
	for _, id := range ids {
		c, ok := meta[id]
		if !ok {
			c = Category{ID: id}
		}
		byID[id] = c
	}
	return &Set{index: index, byID: byID, ids: ids, candidates: candidates}
}

// Candidates returns the category ids and vectors in index order. Callers must not modify them.
func (s *Set) Candidates() ([]string, [][]float64) {
	return s.ids, s.candidates
}

// Categories returns the categories in index order.
func (s *Set) Categories() []Category {
	out := make([]Category, len(s.ids))
	for i, id := range s.ids {
		out[i] = s.byID[id]
	}
	return out
}

// At returns the category at candidate index i.
func (s *Set) At(i int) Category {
	return s.byID[s.ids[i]]
}

// Get returns the category with the given id.
func (s *Set) Get(id string) (Category, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Vector returns the category vector for id.
func (s *Set) Vector(id string) ([]float32, bool) {
	return s.index.Lookup(id)
}

// Nearest returns the k categories closest to vec.
func (s *Set) Nearest(ctx context.Context, vec []float32, k int, metric vector.Similarity) ([]*vector.VectorResult, error) {
	return s.index.Search(ctx, vec, k, metric)
}

// Index returns the underlying vector index.
func (s *Set) Index() *vector.MemoryIndex {
	return s.index
}

// Len returns the number of categories.
func (s *Set) Len() int {
	return len(s.ids)
}
