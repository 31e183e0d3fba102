package vector

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	ids := []string{"a", "b", "c"}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2, Cosine{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[0].Index != 0 {
		t.Errorf("top result should be a@0, got %s@%d", results[0].ID, results[0].Index)
	}
	if results[1].ID != "b" {
		t.Errorf("second result should be b, got %s", results[1].ID)
	}
}

func TestMemoryIndex_SearchEuclid(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"far", "near"}, [][]float32{{10, 10}, {1, 1}})

	results, err := idx.Search(ctx, []float32{1, 1}, 5, Euclidean{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected k capped at 2, got %d", len(results))
	}
	if results[0].ID != "near" || results[0].Score != 0 {
		t.Errorf("got %s score %v, want near score 0", results[0].ID, results[0].Score)
	}
}

func TestMemoryIndex_CandidatesKeepOrder(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"z", "a", "m"}, [][]float32{{1, 0}, {0, 1}, {1, 1}})
	// Re-adding an id replaces its vector in place.
	_ = idx.Add(ctx, []string{"a"}, [][]float32{{2, 2}})

	ids, vecs := idx.Candidates()
	want := []string{"z", "a", "m"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids=%v, want %v", ids, want)
		}
	}
	if vecs[1][0] != 2 || vecs[1][1] != 2 {
		t.Errorf("vector for a = %v, want [2 2]", vecs[1])
	}

	// Mutating the returned slices must not touch the index.
	vecs[0][0] = 99
	got, ok := idx.Lookup("z")
	if !ok || got[0] != 1 {
		t.Errorf("Lookup(z)=%v,%v", got, ok)
	}
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}); err == nil {
		t.Error("expected error for wrong dimension")
	}
	if _, err := idx.Search(ctx, []float32{1}, 1, nil); err == nil {
		t.Error("expected error for wrong query dimension")
	}
	if _, err := NewMemoryIndex(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}

func TestMemoryIndex_Remove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"x", "y", "z"}, [][]float32{{1, 0}, {0, 1}, {1, 1}})
	if err := idx.Remove(ctx, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 2 {
		t.Errorf("expected size 2, got %d", idx.Size())
	}
	ids, _ := idx.Candidates()
	if ids[0] != "y" || ids[1] != "z" {
		t.Errorf("ids after remove = %v", ids)
	}
	if _, ok := idx.Lookup("x"); ok {
		t.Error("x should be gone")
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "categories.idx")
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"n01440764", "n01443537"}, [][]float32{{0.5, -0.25}, {1, 2}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, _ := NewMemoryIndex(2)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	ids, vecs := loaded.Candidates()
	if len(ids) != 2 || ids[0] != "n01440764" || ids[1] != "n01443537" {
		t.Fatalf("ids=%v", ids)
	}
	if vecs[0][0] != 0.5 || vecs[0][1] != -0.25 || vecs[1][1] != 2 {
		t.Errorf("vecs=%v", vecs)
	}

	wrongDim, _ := NewMemoryIndex(3)
	if err := wrongDim.Load(path); err == nil {
		t.Error("expected dimension mismatch error")
	}

	missing, _ := NewMemoryIndex(2)
	if err := missing.Load(filepath.Join(t.TempDir(), "absent.idx")); err != nil {
		t.Errorf("missing file should not error: %v", err)
	}
}
