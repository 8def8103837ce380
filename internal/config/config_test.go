package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Port != 8080 {
		t.Errorf("default port should be 8080, got %d", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("default dimensions should be 384, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.CacheSize != 1000 {
		t.Errorf("default cache size should be 1000, got %d", cfg.Embedding.CacheSize)
	}
	if cfg.Ranking.KeywordWeight != 0.7 {
		t.Errorf("default keyword weight should be 0.7, got %f", cfg.Ranking.KeywordWeight)
	}
	if cfg.Ranking.NoiseFloor != 0.01 {
		t.Errorf("default noise floor should be 0.01, got %f", cfg.Ranking.NoiseFloor)
	}
	if cfg.Ranking.HighRelevance != 0.1 {
		t.Errorf("default high relevance should be 0.1, got %f", cfg.Ranking.HighRelevance)
	}
	if cfg.Chat.MaxTokens != 300 || cfg.Chat.HistoryWindow != 2 || cfg.Chat.SnippetChars != 300 {
		t.Errorf("chat defaults wrong: %+v", cfg.Chat)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
storage:
  backend: sqlite
  database_path: ./data/memories.db
ranking:
  keyword_weight: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port should be 9090, got %d", cfg.Server.Port)
	}
	if cfg.Ranking.KeywordWeight != 0.5 {
		t.Errorf("keyword weight should be 0.5, got %f", cfg.Ranking.KeywordWeight)
	}
	if cfg.Ranking.NoiseFloor != 0.01 {
		t.Error("unset values should still get defaults")
	}
	want := filepath.Join(dir, "data/memories.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database path should expand relative to config dir: got %q, want %q",
			cfg.Storage.DatabasePath, want)
	}
}

func TestLoadInvalidBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: postgres\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("unknown backend should fail fast")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("missing file should return error")
	}
}
