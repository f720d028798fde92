// Package config provides configuration loading and structs for paperindex.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	PubMed     PubMedConfig     `yaml:"pubmed"`
	Search     SearchConfig     `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the two state file paths and the vector index backend.
type StorageConfig struct {
	VectorPath   string `yaml:"vector_path"`
	MetadataPath string `yaml:"metadata_path"`
	IndexType    string `yaml:"index_type"` // memory or faiss
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // auto, onnx or hashing
	ModelPath   string `yaml:"model_path"`
	LibraryPath string `yaml:"library_path"`
	OutputName  string `yaml:"output_name"`
	Dimensions  int    `yaml:"dimensions"`
	MaxTokens   int    `yaml:"max_tokens"`
	CacheSize   int    `yaml:"cache_size"`
}

// SummarizerConfig holds summarizer settings.
type SummarizerConfig struct {
	Provider      string        `yaml:"provider"` // openai or lead
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	APIKeyEnv     string        `yaml:"api_key_env"`
	MaxTokens     int           `yaml:"max_tokens"`
	MaxInputWords int           `yaml:"max_input_words"`
	MaxSentences  int           `yaml:"max_sentences"`
	Timeout       time.Duration `yaml:"timeout"`
}

// PubMedConfig holds literature fetcher settings.
type PubMedConfig struct {
	BaseURL           string        `yaml:"base_url"`
	MaxResults        int           `yaml:"max_results"`
	MinAbstractLength int           `yaml:"min_abstract_length"`
	Timeout           time.Duration `yaml:"timeout"`
	APIKeyEnv         string        `yaml:"api_key_env"`
}

// SearchConfig holds result limits.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	RelatedLimit int `yaml:"related_limit"`
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.finish(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
// Relative paths resolve against baseDir for "./" paths and the home directory otherwise.
func Default(baseDir string) *Config {
	var cfg Config
	// finish only fails validation, which defaults always pass.
	_ = cfg.finish(baseDir)
	return &cfg
}

func (cfg *Config) finish(baseDir string) error {
	ApplyDefaults(cfg)
	cfg.Storage.VectorPath = expandPath(cfg.Storage.VectorPath, baseDir)
	cfg.Storage.MetadataPath = expandPath(cfg.Storage.MetadataPath, baseDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, baseDir)
	if cfg.Embedding.LibraryPath != "" {
		cfg.Embedding.LibraryPath = expandPath(cfg.Embedding.LibraryPath, baseDir)
	}
	return cfg.Validate()
}

// Validate checks values that defaults cannot repair.
func (cfg *Config) Validate() error {
	if cfg.Storage.VectorPath == cfg.Storage.MetadataPath {
		return fmt.Errorf("storage.vector_path and storage.metadata_path must differ")
	}
	switch cfg.Embedding.Provider {
	case ProviderAuto, ProviderONNX, ProviderHashing:
	default:
		return fmt.Errorf("unknown embedding.provider %q (supported: auto, onnx, hashing)", cfg.Embedding.Provider)
	}
	switch cfg.Summarizer.Provider {
	case SummarizerOpenAI, SummarizerLead:
	default:
		return fmt.Errorf("unknown summarizer.provider %q (supported: openai, lead)", cfg.Summarizer.Provider)
	}
	if cfg.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive")
	}
	return nil
}

// Save writes the config to path.
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

// expandPath converts a path to absolute. Paths starting with "./" are relative to baseDir;
// other relative paths are relative to the home directory. A leading "~/" is the home directory.
func expandPath(path string, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(baseDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
