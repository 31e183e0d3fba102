package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/hyperjump/kashi/internal/categories"
	"github.com/hyperjump/kashi/internal/config"
	"github.com/hyperjump/kashi/internal/embedding"
	"github.com/hyperjump/kashi/internal/extract"
	"github.com/hyperjump/kashi/internal/pipeline"
	"github.com/hyperjump/kashi/internal/storage"
	"github.com/hyperjump/kashi/internal/tokenize"
	"github.com/hyperjump/kashi/internal/vector"
	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Storage    storage.Storage
	Embedder   embedding.Embedder
	Tokenizer  *tokenize.Tokenizer
	Categories *categories.Set
	Pipeline   *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// newEmbedder returns the configured word embedder without caching.
func newEmbedder(cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderTable:
		e, err := embedding.NewTableEmbedder(cfg.TablePath)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderONNX:
		e, err := embedding.NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderOpenAI:
		e, err := embedding.NewOpenAIEmbedder(cfg.OpenAIAPIKey, openai.EmbeddingModel(cfg.OpenAIModel), cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderMock:
		return embedding.NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}

// newVectorStore returns the shared token vector cache, or nil when none is configured.
func newVectorStore(cfg *config.Config) (embedding.Store, error) {
	switch cfg.Embedding.Cache.Backend {
	case config.CacheBolt:
		s, err := embedding.NewBoltStore(cfg.Storage.VectorCachePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.CacheRedis:
		c := cfg.Embedding.Cache
		s, err := embedding.NewRedisStore(c.RedisAddr, c.RedisPassword, c.TTL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, nil
	}
}

// cacheNamespace identifies the embedding model so cached vectors of different
// models never mix.
func cacheNamespace(cfg *config.EmbeddingConfig) string {
	model := ""
	switch cfg.Provider {
	case config.ProviderTable:
		model = filepath.Base(cfg.TablePath)
	case config.ProviderONNX:
		model = filepath.Base(cfg.ModelPath)
	case config.ProviderOpenAI:
		model = cfg.OpenAIModel
	}
	return cfg.Provider + ":" + model + ":" + strconv.Itoa(cfg.Dimensions)
}

// newCachedEmbedder builds the embedder with its LRU and optional shared store.
func newCachedEmbedder(cfg *config.Config, logger *zap.Logger) (embedding.Embedder, error) {
	inner, err := newEmbedder(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	store, err := newVectorStore(cfg)
	if err != nil {
		_ = inner.Close()
		return nil, fmt.Errorf("failed to initialize vector cache: %w", err)
	}
	opts := []embedding.CachedOption{embedding.WithCacheLogger(logger)}
	if store != nil {
		opts = append(opts, embedding.WithStore(store, cacheNamespace(&cfg.Embedding)))
	}
	logger.Info("embedder initialized",
		zap.String("provider", cfg.Embedding.Provider),
		zap.Int("dimensions", inner.Dimensions()),
		zap.String("vector_cache", cfg.Embedding.Cache.Backend))
	return embedding.NewCachedEmbedder(inner, cfg.Embedding.CacheSize, opts...), nil
}

func newTokenizer(cfg *config.TokenizerConfig) (*tokenize.Tokenizer, error) {
	return tokenize.New(
		tokenize.WithAdditionalStopwords(cfg.AdditionalStopwords...),
		tokenize.WithRemovedStopwords(cfg.RemovedStopwords...),
	)
}

// loadCategorySet restores the built category set from the index file and the
// category rows in storage. It returns nil when no set has been built yet.
func loadCategorySet(ctx context.Context, path string, dimensions int, store storage.Storage) (*categories.Set, error) {
	idx, err := vector.NewMemoryIndex(dimensions)
	if err != nil {
		return nil, err
	}
	if err := idx.Load(path); err != nil {
		return nil, fmt.Errorf("load category index: %w", err)
	}
	if idx.Size() == 0 {
		return nil, nil
	}
	cats, err := store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories.NewSet(idx, cats), nil
}

// buildCategories loads the taxonomy at path, vectorizes it, saves the index
// and replaces the stored category rows.
func buildCategories(ctx context.Context, cfg *config.Config, c *Components, path string, logger *zap.Logger) (*categories.BuildResult, error) {
	cats, err := categories.Load(path)
	if err != nil {
		return nil, err
	}
	b := categories.NewBuilder(c.Tokenizer, c.Embedder,
		categories.WithSeparator(cfg.Categories.Separator),
		categories.WithWorkers(cfg.Assign.Workers),
		categories.WithLogger(logger),
	)
	res, err := b.Build(ctx, cats)
	if err != nil {
		return nil, err
	}
	if err := res.Set.Index().Save(cfg.Storage.CategoryIndexPath); err != nil {
		return nil, fmt.Errorf("save category index: %w", err)
	}
	if err := c.Storage.ReplaceCategories(ctx, res.Set.Categories()); err != nil {
		return nil, fmt.Errorf("store categories: %w", err)
	}
	if c.Pipeline != nil {
		c.Pipeline.SetCategories(res.Set)
	}
	c.Categories = res.Set
	logger.Info("categories built",
		zap.String("path", path),
		zap.Int("categories", res.Set.Len()),
		zap.Int("dropped", len(res.Dropped)))
	return res, nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	c.Embedder, err = newCachedEmbedder(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Tokenizer, err = newTokenizer(&cfg.Tokenizer)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	c.Categories, err = loadCategorySet(ctx, cfg.Storage.CategoryIndexPath, c.Embedder.Dimensions(), store)
	if err != nil {
		c.Close()
		return nil, err
	}
	if c.Categories == nil {
		logger.Warn("no category index found; run 'kashi categories build' first",
			zap.String("path", cfg.Storage.CategoryIndexPath))
	}

	c.Pipeline, err = pipeline.New(store, c.Tokenizer, c.Embedder, c.Categories,
		pipeline.SettingsFromConfig(&cfg.Assign),
		pipeline.WithLogger(logger),
		pipeline.WithWorkers(cfg.Assign.Workers),
		pipeline.WithExtractor(extract.NewExtractor()),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	return c, nil
}
