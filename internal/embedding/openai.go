package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultEmbeddingTimeout = 30 * time.Second

// OpenAIEmbedder embeds tokens through OpenAI's embeddings API.
type OpenAIEmbedder struct {
	model      openai.EmbeddingModel
	dimensions int
	client     *openai.Client
}

// NewOpenAIEmbedder creates an OpenAI embedder. dimensions must match the model output.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel, dimensions int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	if dimensions <= 0 {
		dimensions = 1536
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIEmbedder{
		model:      model,
		dimensions: dimensions,
		client:     &cli,
	}, nil
}

// Embed returns the embedding for one token.
func (e *OpenAIEmbedder) Embed(ctx context.Context, token string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{token})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds all tokens in a single request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, tokens []string) ([][]float32, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultEmbeddingTimeout)
	defer cancel()

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: tokens,
		},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(tokens) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d tokens", len(resp.Data), len(tokens))
	}
	out := make([][]float32, len(tokens))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(tokens) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
