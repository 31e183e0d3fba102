package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/kashi/internal/config"
	"github.com/hyperjump/kashi/internal/lyrics"
	"github.com/hyperjump/kashi/internal/pipeline"
	"go.uber.org/zap"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after file are moved first",
			args:     []string{"song.lrc", "-top-n", "5"},
			expected: []string{"-top-n", "5", "song.lrc"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-top-n", "5", "song.lrc"},
			expected: []string{"-top-n", "5", "song.lrc"},
		},
		{
			name:     "stdin dash is positional",
			args:     []string{"-", "--output", "json"},
			expected: []string{"--output", "json", "-"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reorderArgs(tt.args); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseIndexRange(t *testing.T) {
	got, err := parseIndexRange(" 0, -1 ")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, lyrics.IndexRange{0, -1}) {
		t.Errorf("got %v", got)
	}
	if r, err := parseIndexRange(""); err != nil || r != nil {
		t.Errorf("empty: got %v, %v", r, err)
	}
	if _, err := parseIndexRange("0,x"); err == nil {
		t.Error("expected error for non-numeric entry")
	}
}

func TestAssignFlags_options(t *testing.T) {
	base := lyrics.Options{Weighing: "cone", Similarity: "cosine", Selection: "max_max", IdxRange: lyrics.IndexRange{0, 1}}

	parse := func(args ...string) (*assignFlags, *flag.FlagSet) {
		fs := flag.NewFlagSet("assign", flag.ContinueOnError)
		var af assignFlags
		af.register(fs)
		if err := fs.Parse(args); err != nil {
			t.Fatal(err)
		}
		return &af, fs
	}

	af, fs := parse()
	if opts, err := af.options(fs, base); err != nil || opts != nil {
		t.Errorf("no flags should reuse the configured assigner, got %+v, %v", opts, err)
	}

	af, fs = parse("-weighing", "last")
	opts, err := af.options(fs, base)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Weighing != "last" || opts.IdxRange != nil || opts.Similarity != "cosine" {
		t.Errorf("weighing override should drop the configured range: %+v", opts)
	}

	af, fs = parse("-similarity", "euclid", "-idx-range", "-1", "-concavity", "2.5")
	opts, err = af.options(fs, base)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Weighing != "cone" || opts.Similarity != "euclid" || !reflect.DeepEqual(opts.IdxRange, lyrics.IndexRange{-1}) {
		t.Errorf("overrides = %+v", opts)
	}
	if opts.Concavity == nil || *opts.Concavity != 2.5 {
		t.Errorf("concavity = %v", opts.Concavity)
	}
}

func TestReadLyricsInput(t *testing.T) {
	text, ext, err := readLyricsInput("hello", nil)
	if err != nil || text != "hello" || ext != "" {
		t.Errorf("--text: %q %q %v", text, ext, err)
	}
	path := filepath.Join(t.TempDir(), "Song.LRC")
	if err := os.WriteFile(path, []byte("[00:01.00]hi"), 0600); err != nil {
		t.Fatal(err)
	}
	text, ext, err = readLyricsInput("", []string{path})
	if err != nil || text != "[00:01.00]hi" || ext != ".lrc" {
		t.Errorf("file: %q %q %v", text, ext, err)
	}
	if _, _, err := readLyricsInput("", nil); err == nil {
		t.Error("expected error without input")
	}
}

func TestCacheNamespace(t *testing.T) {
	tests := []struct {
		cfg  config.EmbeddingConfig
		want string
	}{
		{config.EmbeddingConfig{Provider: config.ProviderTable, TablePath: "/m/glove.6B.300d.txt", Dimensions: 300}, "table:glove.6B.300d.txt:300"},
		{config.EmbeddingConfig{Provider: config.ProviderOpenAI, OpenAIModel: "text-embedding-3-small", Dimensions: 1536}, "openai:text-embedding-3-small:1536"},
		{config.EmbeddingConfig{Provider: config.ProviderMock, Dimensions: 8}, "mock::8"},
	}
	for _, tt := range tests {
		if got := cacheNamespace(&tt.cfg); got != tt.want {
			t.Errorf("cacheNamespace(%s) = %q, want %q", tt.cfg.Provider, got, tt.want)
		}
	}
}

func TestNewEmbedder(t *testing.T) {
	e, err := newEmbedder(&config.EmbeddingConfig{Provider: config.ProviderMock, Dimensions: 8})
	if err != nil {
		t.Fatal(err)
	}
	if e.Dimensions() != 8 {
		t.Errorf("dimensions = %d", e.Dimensions())
	}
	if _, err := newEmbedder(&config.EmbeddingConfig{Provider: "word2vec"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := newEmbedder(&config.EmbeddingConfig{Provider: config.ProviderTable, TablePath: filepath.Join(t.TempDir(), "missing.txt")}); err == nil {
		t.Error("expected error for missing table")
	}
}

func TestNewVectorStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Embedding.Cache.Backend = config.CacheNone
	if s, err := newVectorStore(cfg); err != nil || s != nil {
		t.Errorf("none backend: got %v, %v", s, err)
	}

	cfg.Embedding.Cache.Backend = config.CacheBolt
	cfg.Storage.VectorCachePath = filepath.Join(t.TempDir(), "vectors.bolt")
	s, err := newVectorStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Set(context.Background(), "k", []float32{1, 2}); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

// TestComponents_buildAndReload builds a category index with the mock embedder,
// then checks that a fresh initialization restores it and can assign lines.
func TestComponents_buildAndReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "categories.yaml"), "n-dog: dog, puppy\nn-sea: ocean, sea\nn-none: the, a\n")
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, `
storage:
  database_path: "./kashi.db"
  category_index_path: "./categories.idx"
embedding:
  provider: mock
  dimensions: 8
  cache:
    backend: bolt
categories:
  path: "./categories.yaml"
`)
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Storage.VectorCachePath = filepath.Join(dir, "vectors.bolt")
	ctx := context.Background()
	logger := zap.NewNop()

	c, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	if c.Categories != nil {
		t.Error("no categories should be loaded before a build")
	}
	if _, err := c.Pipeline.Assign(ctx, &pipeline.Request{Texts: []string{"dog"}}); err != pipeline.ErrNoCategories {
		t.Errorf("assign before build: got %v", err)
	}
	res, err := buildCategories(ctx, cfg, c, cfg.Categories.Path, logger)
	if err != nil {
		t.Fatal(err)
	}
	if res.Set.Len() != 2 || len(res.Dropped) != 1 || res.Dropped[0].ID != "n-none" {
		t.Errorf("build: %d categories, dropped %+v", res.Set.Len(), res.Dropped)
	}
	c.Close()

	c, err = initializeComponents(ctx, cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.Categories == nil || c.Categories.Len() != 2 {
		t.Fatalf("reloaded categories: %+v", c.Categories)
	}
	if got, ok := c.Categories.Get("n-sea"); !ok || got.Name != "ocean, sea" {
		t.Errorf("reloaded metadata: %+v", got)
	}
	resp, err := c.Pipeline.Assign(ctx, &pipeline.Request{Texts: []string{"puppy", "the sea"}, TopN: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Lines) != 2 || len(resp.Lines[0].Assignments) != 1 {
		t.Fatalf("assign: %+v", resp.Lines)
	}

	status, err := localStatus(ctx, cfg, c)
	if err != nil {
		t.Fatal(err)
	}
	if status.Categories != 2 || status.DiskUsageBytes == nil || *status.DiskUsageBytes == 0 {
		t.Errorf("status: %+v", status)
	}
	var buf bytes.Buffer
	writeStatusText(&buf, status)
	if !strings.Contains(buf.String(), "categories:         2") || !strings.Contains(buf.String(), "embedding_provider: mock") {
		t.Errorf("status text:\n%s", buf.String())
	}
}

func TestResolveSongID(t *testing.T) {
	if got := resolveSongID("song:abc"); got != "song:abc" {
		t.Errorf("plain id changed: %q", got)
	}
	path := filepath.Join(t.TempDir(), "sea.lrc")
	writeFile(t, path, "x")
	if got := resolveSongID(path); !strings.HasPrefix(got, "file:") {
		t.Errorf("file path should map to a file id, got %q", got)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, `
debug: true
embedding:
  provider: mock
`)
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, `
server:
  host: "127.0.0.1"
  port: 9000
embedding:
  provider: mock
`)
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}
