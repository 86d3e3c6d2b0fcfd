package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the optional single-file configuration schema. Nested
// sections map naturally to flags and env.
type FileConfig struct {
	Port int `yaml:"port"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Browser struct {
		URL string `yaml:"url"`
	} `yaml:"browser"`

	Token struct {
		Encoding string `yaml:"encoding"`
	} `yaml:"token"`

	Cache struct {
		Dir    string        `yaml:"dir"`
		MaxAge time.Duration `yaml:"maxAge"`
	} `yaml:"cache"`

	Assets struct {
		UserAgent   string        `yaml:"userAgent"`
		MaxAttempts int           `yaml:"maxAttempts"`
		Timeout     time.Duration `yaml:"timeout"`
		Concurrency int           `yaml:"concurrency"`
	} `yaml:"assets"`

	Verbose bool `yaml:"verbose"`
}

// LoadConfigFile reads a YAML config file and merges it into cfg, filling
// only fields that are still unset so that flags and env win.
func LoadConfigFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Port == 0 {
		cfg.Port = fc.Port
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.BrowserURL == "" {
		cfg.BrowserURL = fc.Browser.URL
	}
	if cfg.TokenEncoding == "" {
		cfg.TokenEncoding = fc.Token.Encoding
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if cfg.AssetUserAgent == "" {
		cfg.AssetUserAgent = fc.Assets.UserAgent
	}
	if cfg.AssetMaxAttempts == 0 {
		cfg.AssetMaxAttempts = fc.Assets.MaxAttempts
	}
	if cfg.AssetTimeout == 0 {
		cfg.AssetTimeout = fc.Assets.Timeout
	}
	if cfg.AssetConcurrency == 0 {
		cfg.AssetConcurrency = fc.Assets.Concurrency
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	return nil
}
