package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/hyperjump/kashi/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. It returns a fixed-dimension
// vector derived from the token hash so that the same token always gets the same embedding.
// A vocabulary, when set, makes every other token out of vocabulary.
type MockEmbedder struct {
	dimensions int
	vocabulary map[string]bool
	fixed      map[string][]float32
	mu         sync.RWMutex
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 300
	}
	return &MockEmbedder{dimensions: dimensions, fixed: make(map[string][]float32)}
}

// WithVocabulary restricts the embedder to words.
func (e *MockEmbedder) WithVocabulary(words ...string) *MockEmbedder {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vocabulary = make(map[string]bool, len(words))
	for _, w := range words {
		e.vocabulary[w] = true
	}
	return e
}

// Set pins the vector returned for token. Pinned tokens are always in vocabulary.
func (e *MockEmbedder) Set(token string, vec []float32) error {
	if len(vec) != e.dimensions {
		return fmt.Errorf("vector for %q has %d dimensions, want %d", token, len(vec), e.dimensions)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fixed[token] = append([]float32(nil), vec...)
	return nil
}

// Embed returns a deterministic embedding based on the token hash.
func (e *MockEmbedder) Embed(ctx context.Context, token string) ([]float32, error) {
	e.mu.RLock()
	fixed, pinned := e.fixed[token]
	inVocab := e.vocabulary == nil || e.vocabulary[token]
	e.mu.RUnlock()
	if pinned {
		return append([]float32(nil), fixed...), nil
	}
	if !inVocab {
		return nil, fmt.Errorf("%q: %w", token, ErrOutOfVocabulary)
	}

	h := HashString(token)
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each token.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, tokens []string) ([][]float32, error) {
	return embedEach(ctx, e, tokens)
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
