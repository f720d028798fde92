package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/config"
	"github.com/hyperjump/paperindex/internal/models"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"cardiovascular risk", "-limit", "5"},
			expected: []string{"-limit", "5", "cardiovascular risk"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-limit", "5", "cardiovascular risk"},
			expected: []string{"-limit", "5", "cardiovascular risk"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"cardiovascular risk"},
			expected: []string{"cardiovascular risk"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"statin", "therapy", "--server", "http://localhost:8080"},
			expected: []string{"--server", "http://localhost:8080", "statin", "therapy"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"statins"}, "statins"},
		{"multiple words", []string{"statin", "therapy"}, "statin therapy"},
		{"single quoted phrase", []string{"statin therapy"}, "statin therapy"},
		{"surrounding space", []string{"  statins "}, "statins"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinArgs(tt.args); got != tt.expected {
				t.Errorf("joinArgs() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  vector_path: "./state/paper_index.bin"
  metadata_path: "./state/paper_metadata.json"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
	if filepath.Base(cfg.Storage.VectorPath) != "paper_index.bin" || !filepath.IsAbs(cfg.Storage.VectorPath) {
		t.Errorf("vector path = %s, want absolute path under the config dir", cfg.Storage.VectorPath)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

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

func TestLoadConfig_explicitMissingPathFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}

func TestLoadConfig_builtinDefaults(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists at the default path")
	}
	chdir(t, t.TempDir())

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty for built-in defaults", resolved)
	}
	if cfg.Embedding.Dimensions != 384 || cfg.Search.RelatedLimit != 2 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	cfg.Storage.VectorPath = filepath.Join(dir, "paper_index.bin")
	cfg.Storage.MetadataPath = filepath.Join(dir, "paper_metadata.json")
	cfg.Embedding.Provider = config.ProviderHashing
	cfg.Embedding.Dimensions = 32
	return cfg
}

func TestInitializeComponents_CatalogFollowsIndex(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	c, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	papers := []models.Paper{
		{ID: "p1", Summary: "Statins lower cardiovascular risk", Title: "Statins"},
		{ID: "p2", Summary: "Insulin dosing in type 2 diabetes", Title: "Insulin"},
	}
	for _, p := range papers {
		if _, err := c.Index.Add(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := c.Catalog.Search(ctx, "insulin", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"p2"}) {
		t.Errorf("catalog search after add = %v, want [p2]", ids)
	}
	c.Close()

	// Reopening rebuilds the catalog from the saved papers.
	c, err = initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if vectors, records := c.Index.Counts(); vectors != 2 || records != 2 {
		t.Fatalf("counts after reopen = %d/%d, want 2/2", vectors, records)
	}
	ids, err = c.Catalog.Search(ctx, "cardiovascular", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"p1"}) {
		t.Errorf("catalog search after reopen = %v, want [p1]", ids)
	}
}

func TestInitializeComponents_UnknownIndexType(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.IndexType = "annoy"
	if c, err := initializeComponents(cfg, zap.NewNop()); err == nil {
		c.Close()
		t.Error("expected error for unknown index type")
	}
}

func TestNewSummarizer_OpenAIWithoutKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Summarizer.Provider = config.SummarizerOpenAI
	cfg.Summarizer.APIKeyEnv = "PAPERINDEX_TEST_UNSET_KEY"
	t.Setenv("PAPERINDEX_TEST_UNSET_KEY", "")
	if _, err := newSummarizer(cfg, zap.NewNop()); err == nil {
		t.Error("expected error without an API key")
	}
}
