package embedding

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// CachedEmbedder puts an in-process LRU and an optional persistent Store in
// front of another Embedder. Out-of-vocabulary results are not cached.
type CachedEmbedder struct {
	inner     Embedder
	lru       *EmbeddingCache
	store     Store
	namespace string
	logger    *zap.Logger
}

// CachedOption configures a CachedEmbedder.
type CachedOption func(*CachedEmbedder)

// WithStore adds a persistent store. Keys are prefixed with namespace so that
// vectors of different models never mix.
func WithStore(store Store, namespace string) CachedOption {
	return func(c *CachedEmbedder) {
		c.store = store
		c.namespace = namespace
	}
}

// WithCacheLogger sets the logger used for store failures.
func WithCacheLogger(logger *zap.Logger) CachedOption {
	return func(c *CachedEmbedder) {
		c.logger = logger
	}
}

// NewCachedEmbedder wraps inner with an LRU of cacheSize entries.
func NewCachedEmbedder(inner Embedder, cacheSize int, opts ...CachedOption) *CachedEmbedder {
	c := &CachedEmbedder{
		inner:  inner,
		lru:    NewEmbeddingCache(cacheSize),
		store:  NoOpStore{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns the vector for token from the LRU, then the store, then the inner embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, token string) ([]float32, error) {
	if vec, ok := c.lru.Get(token); ok {
		return vec, nil
	}
	key := c.namespace + ":" + token
	vec, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("vector store read failed", zap.String("token", token), zap.Error(err))
	}
	if ok && len(vec) == c.inner.Dimensions() {
		c.lru.Set(token, vec)
		return vec, nil
	}

	vec, err = c.inner.Embed(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrOutOfVocabulary) {
			c.logger.Debug("embed failed", zap.String("token", token), zap.Error(err))
		}
		return nil, err
	}
	c.lru.Set(token, vec)
	if err := c.store.Set(ctx, key, vec); err != nil {
		c.logger.Warn("vector store write failed", zap.String("token", token), zap.Error(err))
	}
	return vec, nil
}

// EmbedBatch calls Embed for each token.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, tokens []string) ([][]float32, error) {
	return embedEach(ctx, c, tokens)
}

// Dimensions returns the inner embedder's dimension.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the store and the inner embedder.
func (c *CachedEmbedder) Close() error {
	storeErr := c.store.Close()
	if err := c.inner.Close(); err != nil {
		return err
	}
	return storeErr
}
