package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, err := e.Embed(ctx, "river")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "river")
	if len(a) != 16 {
		t.Fatalf("len=%d", len(a))
	}
	var norm float64
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same token should give same vector")
		}
		norm += float64(a[i] * a[i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm^2=%f, want 1", norm)
	}
}

func TestMockEmbedder_Vocabulary(t *testing.T) {
	e := NewMockEmbedder(4).WithVocabulary("love", "night")
	ctx := context.Background()
	if _, err := e.Embed(ctx, "love"); err != nil {
		t.Errorf("love: %v", err)
	}
	_, err := e.Embed(ctx, "zzyzx")
	if !errors.Is(err, ErrOutOfVocabulary) {
		t.Errorf("expected ErrOutOfVocabulary, got %v", err)
	}
	if _, err := e.EmbedBatch(ctx, []string{"love", "zzyzx"}); !errors.Is(err, ErrOutOfVocabulary) {
		t.Errorf("batch should fail on OOV, got %v", err)
	}
}

func TestMockEmbedder_Set(t *testing.T) {
	e := NewMockEmbedder(2).WithVocabulary()
	if err := e.Set("up", []float32{0, 1}); err != nil {
		t.Fatal(err)
	}
	if err := e.Set("bad", []float32{1}); err == nil {
		t.Error("expected dimension error")
	}
	v, err := e.Embed(context.Background(), "up")
	if err != nil || v[0] != 0 || v[1] != 1 {
		t.Errorf("Embed(up)=%v,%v", v, err)
	}
}

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize("hello", 8)
	if len(ids) != 8 {
		t.Errorf("len(ids)=%d", len(ids))
	}
	if ids[0] != 101 || ids[2] != 102 {
		t.Errorf("expected CLS word SEP, got %v", ids[:3])
	}
	if attn[0] != 1 || attn[1] != 1 || attn[2] != 1 || attn[3] != 0 {
		t.Errorf("attention=%v", attn)
	}
}
