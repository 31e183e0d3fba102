package lyrics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hyperjump/kashi/internal/embedding"
	"github.com/hyperjump/kashi/internal/vector"
)

// Line is one lyric line ready for assignment.
type Line struct {
	Tokens []string
	// Vectors holds one vector per token that had one, in token order.
	Vectors [][]float64
	// Missing lists the tokens the embedder had no vector for.
	Missing []string
	// Err is set when the embedder failed on one of the tokens. The line
	// is then left out of assignment.
	Err error
}

// Vectorizer looks tokens up through an Embedder and memoises the results,
// including misses, for its lifetime. It is safe for concurrent use.
type Vectorizer struct {
	embedder embedding.Embedder
	mu       sync.RWMutex
	memo     map[string][]float64
}

// NewVectorizer returns a Vectorizer backed by e.
func NewVectorizer(e embedding.Embedder) *Vectorizer {
	return &Vectorizer{embedder: e, memo: make(map[string][]float64)}
}

func (v *Vectorizer) lookup(ctx context.Context, token string) ([]float64, error) {
	v.mu.RLock()
	vec, ok := v.memo[token]
	v.mu.RUnlock()
	if ok {
		return vec, nil
	}
	raw, err := v.embedder.Embed(ctx, token)
	switch {
	case errors.Is(err, embedding.ErrOutOfVocabulary):
		vec = nil
	case err != nil:
		return nil, err
	default:
		vec = vector.ToFloat64(raw)
	}
	v.mu.Lock()
	v.memo[token] = vec
	v.mu.Unlock()
	return vec, nil
}

// VectorizeLine turns tokens into a Line. Out-of-vocabulary tokens are
// recorded in Line.Missing; any other embedder error fails the line.
func (v *Vectorizer) VectorizeLine(ctx context.Context, tokens []string) (*Line, error) {
	line := &Line{Tokens: tokens, Vectors: make([][]float64, 0, len(tokens))}
	for _, tok := range tokens {
		vec, err := v.lookup(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("embed %q: %w", tok, err)
		}
		if vec == nil {
			line.Missing = append(line.Missing, tok)
			continue
		}
		line.Vectors = append(line.Vectors, vec)
	}
	return line, nil
}

// VectorizeLines vectorizes lines[start:stop]. A negative stop means the end.
// A line the embedder fails on keeps its error in Line.Err and the remaining
// lines are still vectorized; only a cancelled ctx aborts the call.
func (v *Vectorizer) VectorizeLines(ctx context.Context, lines [][]string, start, stop int) ([]*Line, error) {
	if stop < 0 || stop > len(lines) {
		stop = len(lines)
	}
	if start < 0 || start > stop {
		return nil, fmt.Errorf("invalid line range [%d:%d] for %d lines", start, stop, len(lines))
	}
	out := make([]*Line, 0, stop-start)
	for i := start; i < stop; i++ {
		line, err := v.VectorizeLine(ctx, lines[i])
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			line = &Line{Tokens: lines[i], Err: fmt.Errorf("line %d: %w", i, err)}
		}
		out = append(out, line)
	}
	return out, nil
}

// VectorizeSong vectorizes every line and reports how many lines had at
// least one token without a vector. Failed lines carry Line.Err.
func (v *Vectorizer) VectorizeSong(ctx context.Context, lines [][]string) ([]*Line, int, error) {
	out, err := v.VectorizeLines(ctx, lines, 0, -1)
	if err != nil {
		return nil, 0, err
	}
	incomplete := 0
	for _, l := range out {
		if len(l.Missing) > 0 {
			incomplete++
		}
	}
	return out, incomplete, nil
}
