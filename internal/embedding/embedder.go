// Package embedding provides word embeddings for lyric and category tokens,
// with in-process and persistent vector caches.
package embedding

import (
	"context"
	"errors"
)

// ErrOutOfVocabulary is returned by an Embedder that has no vector for a token.
var ErrOutOfVocabulary = errors.New("token out of vocabulary")

// Embedder produces word vectors for single tokens.
type Embedder interface {
	Embed(ctx context.Context, token string) ([]float32, error)
	EmbedBatch(ctx context.Context, tokens []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// embedEach calls Embed for each token and stops at the first error.
func embedEach(ctx context.Context, e Embedder, tokens []string) ([][]float32, error) {
	embeddings := make([][]float32, len(tokens))
	for i, token := range tokens {
		emb, err := e.Embed(ctx, token)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
