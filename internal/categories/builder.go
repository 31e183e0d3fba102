package categories

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/hyperjump/kashi/internal/embedding"
	"github.com/hyperjump/kashi/internal/tokenize"
	"github.com/hyperjump/kashi/internal/vector"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Builder turns categories into vectors with the "mean" strategy: the
// vectorizable tokens of each sub-phrase are averaged, then the sub-phrase
// means are averaged.
type Builder struct {
	tokenizer *tokenize.Tokenizer
	embedder  embedding.Embedder
	separator string
	workers   int
	logger    *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSeparator sets the sub-phrase separator. Default ",".
func WithSeparator(sep string) BuilderOption {
	return func(b *Builder) {
		if sep != "" {
			b.separator = sep
		}
	}
}

// WithWorkers limits the number of categories vectorized concurrently.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder returns a Builder.
func NewBuilder(tok *tokenize.Tokenizer, emb embedding.Embedder, opts ...BuilderOption) *Builder {
	b := &Builder{
		tokenizer: tok,
		embedder:  emb,
		separator: tokenize.DefaultCategorySeparator,
		workers:   runtime.GOMAXPROCS(0),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildResult is the outcome of Build.
type BuildResult struct {
	Set *Set
	// Dropped lists categories without a single vectorizable token.
	Dropped []Category
}

// Build vectorizes cats and returns them as a Set in input order. Categories
// with no vector are dropped, since a zero vector has no direction.
func (b *Builder) Build(ctx context.Context, cats []Category) (*BuildResult, error) {
	vectors := make([][]float64, len(cats))
	built := make([]Category, len(cats))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, c := range cats {
		g.Go(func() error {
			c.Tokens = b.tokenizer.TokenizeCategory(c.Name, b.separator)
			vec, err := b.meanVector(gctx, c.Tokens)
			if err != nil {
				return fmt.Errorf("category %s: %w", c.ID, err)
			}
			built[i] = c
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index, err := vector.NewMemoryIndex(b.embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	res := &BuildResult{}
	var kept []Category
	for i, c := range built {
		if vectors[i] == nil {
			res.Dropped = append(res.Dropped, c)
			b.logger.Warn("category has no vectorizable tokens",
				zap.String("id", c.ID), zap.String("name", c.Name))
			continue
		}
		if err := index.Add(ctx, []string{c.ID}, [][]float32{vector.ToFloat32(vectors[i])}); err != nil {
			return nil, fmt.Errorf("category %s: %w", c.ID, err)
		}
		kept = append(kept, c)
	}
	res.Set = NewSet(index, kept)
	b.logger.Info("categories built",
		zap.Int("categories", len(kept)), zap.Int("dropped", len(res.Dropped)))
	return res, nil
}

// meanVector returns nil when no phrase has a vectorizable token.
func (b *Builder) meanVector(ctx context.Context, phrases [][]string) ([]float64, error) {
	dims := b.embedder.Dimensions()
	sum := make([]float64, dims)
	nPhrases := 0
	for _, tokens := range phrases {
		phrase := make([]float64, dims)
		n := 0
		for _, tok := range tokens {
			raw, err := b.embedder.Embed(ctx, tok)
			if errors.Is(err, embedding.ErrOutOfVocabulary) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("embed %q: %w", tok, err)
			}
			if len(raw) != dims {
				return nil, fmt.Errorf("embed %q: got %d dimensions, want %d", tok, len(raw), dims)
			}
			floats.Add(phrase, vector.ToFloat64(raw))
			n++
		}
		if n == 0 {
			continue
		}
		floats.Scale(1/float64(n), phrase)
		floats.Add(sum, phrase)
		nPhrases++
	}
	if nPhrases == 0 {
		return nil, nil
	}
	floats.Scale(1/float64(nPhrases), sum)
	if floats.Norm(sum, 2) == 0 {
		return nil, nil
	}
	return sum, nil
}
