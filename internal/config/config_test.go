package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4600 {
		t.Errorf("port = %d, want 4600", cfg.Server.Port)
	}
	if cfg.Crawler.MaxPages != 10 || cfg.Crawler.PageTimeoutSecs != 15 || cfg.Crawler.DeadlineSecs != 300 {
		t.Errorf("crawler config = %+v", cfg.Crawler)
	}
	if cfg.Retrieval.Limit != 3 {
		t.Errorf("retrieval limit = %d, want 3", cfg.Retrieval.Limit)
	}
	if cfg.Usage.DefaultMessageLimit != 1000 {
		t.Errorf("message limit = %d, want 1000", cfg.Usage.DefaultMessageLimit)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("data dir should default to a non-empty path")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
  api_token: sekrit
crawler:
  max_pages: 25
  disable_rendering: true
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.APIToken != "sekrit" {
		t.Errorf("server config = %+v", cfg.Server)
	}
	if cfg.Crawler.MaxPages != 25 || !cfg.Crawler.DisableRendering {
		t.Errorf("crawler config = %+v", cfg.Crawler)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Retrieval.Limit != 3 {
		t.Errorf("retrieval limit = %d, want default 3", cfg.Retrieval.Limit)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4600 {
		t.Errorf("port = %d, want default 4600", cfg.Server.Port)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("KNOW_PORT", "7777")
	t.Setenv("KNOW_API_TOKEN", "from-env")
	t.Setenv("KNOW_CRAWL_DISABLE_RENDERING", "true")
	t.Setenv("KNOW_DEFAULT_MESSAGE_LIMIT", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want env override 7777", cfg.Server.Port)
	}
	if cfg.Server.APIToken != "from-env" {
		t.Errorf("token = %q", cfg.Server.APIToken)
	}
	if !cfg.Crawler.DisableRendering {
		t.Error("rendering should be disabled via env")
	}
	if cfg.Usage.DefaultMessageLimit != 50 {
		t.Errorf("message limit = %d, want 50", cfg.Usage.DefaultMessageLimit)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("KNOW_PORT", "70000")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for out-of-range port")
	}

	t.Setenv("KNOW_PORT", "4600")
	t.Setenv("KNOW_CRAWL_MAX_PAGES", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for zero max_pages")
	}
}
