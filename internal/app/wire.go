package app

import (
	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/cache"
	"github.com/reskindev/reskin/internal/classify"
	"github.com/reskindev/reskin/internal/llm"
	"github.com/reskindev/reskin/internal/router"
	"github.com/reskindev/reskin/internal/scrape"
	"github.com/reskindev/reskin/internal/synth"
	"github.com/reskindev/reskin/internal/token"
)

// New wires the pipeline from configuration, an LLM handle, and a page
// renderer. The handle and renderer are injected so tests and the stub
// provider can stand in.
func New(cfg Config, client llm.Client, renderer scrape.Renderer) *App {
	cfg = cfg.withDefaults()
	counter := &token.TiktokenCounter{Encoding: cfg.TokenEncoding}
	if cfg.CacheDir != "" {
		rc := &cache.ResponseCache{Dir: cfg.CacheDir}
		if err := rc.Purge(cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("purge response cache")
		}
		client = &llm.CachingClient{Inner: client, Cache: rc}
	}
	return &App{
		Scraper: &scrape.Scraper{
			Renderer: renderer,
			Assets: &scrape.AssetClient{
				UserAgent:         cfg.AssetUserAgent,
				MaxAttempts:       cfg.AssetMaxAttempts,
				PerRequestTimeout: cfg.AssetTimeout,
				MaxConcurrent:     cfg.AssetConcurrency,
			},
		},
		Router: &router.Router{
			Counter:     counter,
			Classifier:  &classify.Classifier{Client: client, Model: cfg.LLMModel},
			Synthesizer: &synth.Synthesizer{Client: client, Model: cfg.LLMModel},
		},
		Counter: counter,
	}
}
