package app

import "time"

// Config holds runtime configuration for the backend service.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// BrowserURL is the websocket URL of an already-running Chrome; empty
	// launches a local headless instance.
	BrowserURL string

	// TokenEncoding names the tiktoken encoding for the gateway.
	TokenEncoding string

	// CacheDir enables the on-disk model response cache when set.
	CacheDir string
	// CacheMaxAge purges cache entries older than this on startup.
	CacheMaxAge time.Duration

	// External asset fetching
	AssetUserAgent   string
	AssetMaxAttempts int
	AssetTimeout     time.Duration
	AssetConcurrency int

	Verbose bool
}

// DefaultPort is the listen port used when none is configured.
const DefaultPort = 5000

// withDefaults fills unset fields with sensible values.
func (c Config) withDefaults() Config {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.AssetMaxAttempts <= 0 {
		c.AssetMaxAttempts = 2
	}
	if c.AssetTimeout <= 0 {
		c.AssetTimeout = 15 * time.Second
	}
	if c.AssetConcurrency <= 0 {
		c.AssetConcurrency = 4
	}
	if c.AssetUserAgent == "" {
		c.AssetUserAgent = "reskin/1.0 (+https://github.com/reskindev/reskin)"
	}
	return c
}
