package lyrics

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/kashi/internal/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyEmbedder struct {
	*embedding.MockEmbedder
	calls map[string]int
}

var errBackend = errors.New("backend down")

func (f *flakyEmbedder) Embed(ctx context.Context, token string) ([]float32, error) {
	f.calls[token]++
	if token == "boom" {
		return nil, errBackend
	}
	return f.MockEmbedder.Embed(ctx, token)
}

func newFlaky(vocab ...string) *flakyEmbedder {
	return &flakyEmbedder{
		MockEmbedder: embedding.NewMockEmbedder(4).WithVocabulary(vocab...),
		calls:        map[string]int{},
	}
}

func TestVectorizer_Memoises(t *testing.T) {
	e := newFlaky("rain")
	v := NewVectorizer(e)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		l, err := v.VectorizeLine(ctx, []string{"rain", "qqq"})
		require.NoError(t, err)
		assert.Len(t, l.Vectors, 1)
		assert.Equal(t, []string{"qqq"}, l.Missing)
	}
	assert.Equal(t, 1, e.calls["rain"])
	assert.Equal(t, 1, e.calls["qqq"], "misses are memoised too")
}

func TestVectorizer_BackendErrorFailsLine(t *testing.T) {
	v := NewVectorizer(newFlaky("rain"))
	_, err := v.VectorizeLine(context.Background(), []string{"rain", "boom"})
	assert.True(t, errors.Is(err, errBackend))
}

func TestVectorizer_VectorizeLines(t *testing.T) {
	v := NewVectorizer(newFlaky("a", "b", "c"))
	ctx := context.Background()
	lines := [][]string{{"a"}, {"b", "x"}, {"c"}, {}}

	got, err := v.VectorizeLines(ctx, lines, 1, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"b", "x"}, got[0].Tokens)
	assert.Equal(t, []string{"c"}, got[1].Tokens)

	got, err = v.VectorizeLines(ctx, lines, 2, -1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Empty(t, got[1].Vectors)

	_, err = v.VectorizeLines(ctx, lines, 3, 1)
	assert.Error(t, err)
}

func TestVectorizer_VectorizeSong(t *testing.T) {
	v := NewVectorizer(newFlaky("a", "b"))
	lines, incomplete, err := v.VectorizeSong(context.Background(), [][]string{{"a", "b"}, {"a", "z"}, {"y"}})
	require.NoError(t, err)
	assert.Len(t, lines, 3)
	assert.Equal(t, 2, incomplete)
}

func TestVectorizer_VectorizeSongKeepsGoingPastFailedLine(t *testing.T) {
	v := NewVectorizer(newFlaky("a", "c"))
	lines, incomplete, err := v.VectorizeSong(context.Background(), [][]string{{"a"}, {"boom", "a"}, {"c"}})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.NoError(t, lines[0].Err)
	assert.True(t, errors.Is(lines[1].Err, errBackend))
	assert.Equal(t, []string{"boom", "a"}, lines[1].Tokens)
	assert.Empty(t, lines[1].Vectors)
	assert.NoError(t, lines[2].Err)
	assert.Len(t, lines[2].Vectors, 1)
	assert.Equal(t, 0, incomplete)
}

func TestVectorizer_VectorizeLinesCancelled(t *testing.T) {
	v := NewVectorizer(newFlaky("a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.VectorizeLines(ctx, [][]string{{"boom"}}, 0, -1)
	assert.True(t, errors.Is(err, context.Canceled))
}
