// Package config provides configuration loading and structs for the kashi server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/hyperjump/kashi/internal/lyrics"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. KASHI_SERVER_PORT.
const EnvPrefix = "KASHI_"

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug" env:"DEBUG"`
	Server     ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Storage    StorageConfig    `yaml:"storage" envPrefix:"STORAGE_"`
	Embedding  EmbeddingConfig  `yaml:"embedding" envPrefix:"EMBEDDING_"`
	Tokenizer  TokenizerConfig  `yaml:"tokenizer" envPrefix:"TOKENIZER_"`
	Categories CategoriesConfig `yaml:"categories" envPrefix:"CATEGORIES_"`
	Assign     AssignConfig     `yaml:"assign" envPrefix:"ASSIGN_"`
	Watch      WatchConfig      `yaml:"watch" envPrefix:"WATCH_"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT" validate:"min=1,max=65535"`
}

// StorageConfig holds paths for the database and on-disk indices.
type StorageConfig struct {
	DatabasePath      string `yaml:"database_path" env:"DATABASE_PATH" validate:"required"`
	VectorCachePath   string `yaml:"vector_cache_path" env:"VECTOR_CACHE_PATH"`
	CategoryIndexPath string `yaml:"category_index_path" env:"CATEGORY_INDEX_PATH" validate:"required"`
}

// Embedding providers.
const (
	ProviderTable  = "table"
	ProviderONNX   = "onnx"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Vector cache backends.
const (
	CacheNone  = "none"
	CacheBolt  = "bolt"
	CacheRedis = "redis"
)

// EmbeddingConfig selects and configures the word embedder.
type EmbeddingConfig struct {
	Provider     string            `yaml:"provider" env:"PROVIDER" validate:"oneof=table onnx openai mock"`
	TablePath    string            `yaml:"table_path" env:"TABLE_PATH" validate:"required_if=Provider table"`
	ModelPath    string            `yaml:"model_path" env:"MODEL_PATH" validate:"required_if=Provider onnx"`
	Dimensions   int               `yaml:"dimensions" env:"DIMENSIONS" validate:"min=1"`
	MaxTokens    int               `yaml:"max_tokens" env:"MAX_TOKENS" validate:"min=3"`
	CacheSize    int               `yaml:"cache_size" env:"CACHE_SIZE" validate:"min=1"`
	OpenAIModel  string            `yaml:"openai_model" env:"OPENAI_MODEL"`
	OpenAIAPIKey string            `yaml:"openai_api_key,omitempty" env:"OPENAI_API_KEY"`
	Cache        VectorCacheConfig `yaml:"cache" envPrefix:"CACHE_"`
}

// VectorCacheConfig configures the shared token vector cache behind the in-process LRU.
type VectorCacheConfig struct {
	Backend       string        `yaml:"backend" env:"BACKEND" validate:"oneof=none bolt redis"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR" validate:"required_if=Backend redis"`
	RedisPassword string        `yaml:"redis_password,omitempty" env:"REDIS_PASSWORD"`
	TTL           time.Duration `yaml:"ttl" env:"TTL"`
}

// TokenizerConfig adjusts the English stopword list.
type TokenizerConfig struct {
	AdditionalStopwords []string `yaml:"additional_stopwords" env:"ADDITIONAL_STOPWORDS" envSeparator:","`
	RemovedStopwords    []string `yaml:"removed_stopwords" env:"REMOVED_STOPWORDS" envSeparator:","`
}

// CategoriesConfig locates the category taxonomy.
type CategoriesConfig struct {
	Path      string `yaml:"path" env:"PATH"`
	Separator string `yaml:"separator" env:"SEPARATOR"`
}

// AssignConfig holds the default assigner and song batching settings.
type AssignConfig struct {
	Weighing      string   `yaml:"weighing" env:"WEIGHING" validate:"oneof=equal eq cone first last"`
	Similarity    string   `yaml:"similarity" env:"SIMILARITY" validate:"oneof=cosine euclid euclidean"`
	Selection     string   `yaml:"selection" env:"SELECTION" validate:"oneof=max_max mean_max"`
	IdxRange      []int    `yaml:"idx_range" env:"IDX_RANGE" envSeparator:","`
	Concavity     *float64 `yaml:"concavity"`
	TopN          int      `yaml:"top_n" env:"TOP_N" validate:"min=1"`
	Workers       int      `yaml:"workers" env:"WORKERS" validate:"min=1"`
	Window        int      `yaml:"window" env:"WINDOW" validate:"min=1"`
	WindowOverlap int      `yaml:"window_overlap" env:"WINDOW_OVERLAP" validate:"min=0,ltfield=Window"`
}

// Options converts the section into assigner options.
func (a *AssignConfig) Options() lyrics.Options {
	opts := lyrics.Options{
		Weighing:   a.Weighing,
		Similarity: a.Similarity,
		Selection:  a.Selection,
		Concavity:  a.Concavity,
	}
	if len(a.IdxRange) > 0 {
		opts.IdxRange = append(lyrics.IndexRange(nil), a.IdxRange...)
	}
	return opts
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories" env:"DIRECTORIES" envSeparator:","`
	Extensions  []string `yaml:"extensions" env:"EXTENSIONS" envSeparator:","`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads the config file at path, applies KASHI_* environment overrides
// and defaults, expands paths and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorCachePath = expandPath(cfg.Storage.VectorCachePath, configDir)
	cfg.Storage.CategoryIndexPath = expandPath(cfg.Storage.CategoryIndexPath, configDir)
	cfg.Embedding.TablePath = expandPath(cfg.Embedding.TablePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Categories.Path = expandPath(cfg.Categories.Path, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints after defaults have been applied.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
