package embedding

import (
	"context"
	"os"
	"testing"
)

// Runs against a live server when KASHI_TEST_REDIS_ADDR is set.
func TestRedisStore_GetSet(t *testing.T) {
	addr := os.Getenv("KASHI_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KASHI_TEST_REDIS_ADDR not set")
	}
	s, err := NewRedisStore(addr, os.Getenv("KASHI_TEST_REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()
	key := "test:" + t.Name()
	if err := s.Set(ctx, key, []float32{1, 2}); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok || v[1] != 2 {
		t.Errorf("Get=%v,%v,%v", v, ok, err)
	}
	if _, ok, _ := s.Get(ctx, "test:absent"); ok {
		t.Error("expected miss")
	}
}
