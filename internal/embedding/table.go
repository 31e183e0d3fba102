package embedding

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TableEmbedder serves pre-trained word vectors from a text table in the
// GloVe / word2vec text format: one "word v1 v2 ... vD" entry per line. A
// word2vec "count dims" header line is accepted and skipped.
type TableEmbedder struct {
	vectors    map[string][]float32
	dimensions int
}

// NewTableEmbedder loads the vector table at path.
func NewTableEmbedder(path string) (*TableEmbedder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vector table: %w", err)
	}
	defer f.Close()
	t, err := LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadTable parses a vector table from r.
func LoadTable(r io.Reader) (*TableEmbedder, error) {
	t := &TableEmbedder{vectors: make(map[string][]float32)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 && isInt(fields[0]) && isInt(fields[1]) {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: no vector values", lineNo)
		}
		if t.dimensions == 0 {
			t.dimensions = len(fields) - 1
		}
		if len(fields)-1 != t.dimensions {
			return nil, fmt.Errorf("line %d: %d values, want %d", lineNo, len(fields)-1, t.dimensions)
		}
		vec := make([]float32, t.dimensions)
		for i, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vec[i] = float32(v)
		}
		if _, dup := t.vectors[fields[0]]; !dup {
			t.vectors[fields[0]] = vec
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(t.vectors) == 0 {
		return nil, fmt.Errorf("empty vector table")
	}
	return t, nil
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// Embed returns the table vector for token, or ErrOutOfVocabulary.
func (t *TableEmbedder) Embed(ctx context.Context, token string) ([]float32, error) {
	vec, ok := t.vectors[token]
	if !ok {
		return nil, fmt.Errorf("%q: %w", token, ErrOutOfVocabulary)
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, nil
}

// EmbedBatch calls Embed for each token.
func (t *TableEmbedder) EmbedBatch(ctx context.Context, tokens []string) ([][]float32, error) {
	return embedEach(ctx, t, tokens)
}

// Dimensions returns the vector dimension of the table.
func (t *TableEmbedder) Dimensions() int {
	return t.dimensions
}

// Len returns the vocabulary size.
func (t *TableEmbedder) Len() int {
	return len(t.vectors)
}

// Close is a no-op for TableEmbedder.
func (t *TableEmbedder) Close() error {
	return nil
}
