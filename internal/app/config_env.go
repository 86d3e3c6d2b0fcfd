package app

import (
	"os"
	"strconv"
)

// ApplyEnvToConfig populates unset fields of cfg from environment
// variables. Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Port == 0 {
		if n, err := strconv.Atoi(os.Getenv("PORT")); err == nil && n > 0 {
			cfg.Port = n
		}
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.BrowserURL == "" {
		cfg.BrowserURL = os.Getenv("BROWSER_URL")
	}
	if cfg.TokenEncoding == "" {
		cfg.TokenEncoding = os.Getenv("TOKEN_ENCODING")
	}
}
