package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.Port != DefaultPort {
		t.Fatalf("default port = %d, want %d", c.Port, DefaultPort)
	}
	if c.AssetMaxAttempts <= 0 || c.AssetTimeout <= 0 || c.AssetConcurrency <= 0 {
		t.Fatalf("asset defaults unset: %+v", c)
	}
	// Explicit values survive.
	c = Config{Port: 8123, AssetTimeout: time.Second}.withDefaults()
	if c.Port != 8123 || c.AssetTimeout != time.Second {
		t.Fatalf("explicit values overwritten: %+v", c)
	}
}

func TestApplyEnvToConfig(t *testing.T) {
	t.Setenv("PORT", "6001")
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("LLM_API_KEY", "env-key")

	cfg := Config{LLMModel: "flag-model"}
	ApplyEnvToConfig(&cfg)
	if cfg.Port != 6001 {
		t.Fatalf("port from env: %d", cfg.Port)
	}
	if cfg.LLMModel != "flag-model" {
		t.Fatal("explicit model must take precedence over env")
	}
	if cfg.LLMAPIKey != "env-key" {
		t.Fatalf("api key from env: %q", cfg.LLMAPIKey)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reskin.yaml")
	body := `
port: 7000
llm:
  base: http://localhost:8081/v1
  model: file-model
browser:
  url: ws://localhost:9222
assets:
  maxAttempts: 5
verbose: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Config{Port: 5050}
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 5050 {
		t.Fatal("file must not override an explicitly set port")
	}
	if cfg.LLMModel != "file-model" || cfg.BrowserURL != "ws://localhost:9222" {
		t.Fatalf("file values not merged: %+v", cfg)
	}
	if cfg.AssetMaxAttempts != 5 || !cfg.Verbose {
		t.Fatalf("nested values not merged: %+v", cfg)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	cfg := Config{}
	if err := LoadConfigFile("/nonexistent/reskin.yaml", &cfg); err == nil {
		t.Fatal("missing file should error")
	}
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte(":\nnot yaml ["), 0o644)
	if err := LoadConfigFile(bad, &cfg); err == nil {
		t.Fatal("malformed yaml should error")
	}
}
