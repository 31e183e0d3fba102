package config

import "github.com/hyperjump/kashi/internal/lyrics"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kashi/data/db/kashi.db"
	}
	if cfg.Storage.CategoryIndexPath == "" {
		cfg.Storage.CategoryIndexPath = "/usr/local/var/kashi/data/indices/categories.idx"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderTable
	}
	if cfg.Embedding.Provider == ProviderTable && cfg.Embedding.TablePath == "" {
		cfg.Embedding.TablePath = "/usr/local/var/kashi/data/models/glove.6B.300d.txt"
	}
	if cfg.Embedding.Provider == ProviderONNX && cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/kashi/data/models/word-embedder.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 300
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 16
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 50000
	}
	if cfg.Embedding.OpenAIModel == "" {
		cfg.Embedding.OpenAIModel = "text-embedding-3-small"
	}
	if cfg.Embedding.Cache.Backend == "" {
		cfg.Embedding.Cache.Backend = CacheNone
	}
	if cfg.Embedding.Cache.Backend == CacheBolt && cfg.Storage.VectorCachePath == "" {
		cfg.Storage.VectorCachePath = "/usr/local/var/kashi/data/cache/vectors.db"
	}
	if cfg.Categories.Separator == "" {
		cfg.Categories.Separator = ","
	}
	def := lyrics.DefaultOptions()
	if cfg.Assign.Weighing == "" {
		cfg.Assign.Weighing = def.Weighing
	}
	if cfg.Assign.Similarity == "" {
		cfg.Assign.Similarity = def.Similarity
	}
	if cfg.Assign.Selection == "" {
		cfg.Assign.Selection = def.Selection
	}
	if cfg.Assign.TopN == 0 {
		cfg.Assign.TopN = 3
	}
	if cfg.Assign.Workers == 0 {
		cfg.Assign.Workers = 4
	}
	if cfg.Assign.Window == 0 {
		cfg.Assign.Window = 1
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".lrc", ".txt", ".md", ".pdf", ".docx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
