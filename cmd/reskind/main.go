package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/app"
	"github.com/reskindev/reskin/internal/httpapi"
	"github.com/reskindev/reskin/internal/llm"
	"github.com/reskindev/reskin/internal/scrape"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath string
		cfg        app.Config
	)

	flag.StringVar(&configPath, "config", "", "Path to optional YAML config file")
	flag.IntVar(&cfg.Port, "port", 0, "HTTP listen port (default 5000)")
	flag.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	flag.StringVar(&cfg.LLMModel, "llm.model", "", "Model name")
	flag.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for OpenAI-compatible server")
	flag.StringVar(&cfg.BrowserURL, "browser.url", "", "Control URL of a running Chrome; empty launches headless")
	flag.StringVar(&cfg.TokenEncoding, "token.encoding", "", "Tiktoken encoding name (default cl100k_base)")
	flag.StringVar(&cfg.CacheDir, "cache.dir", "", "Directory for the model response cache; empty disables")
	flag.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.Parse()

	app.ApplyEnvToConfig(&cfg)
	if strings.TrimSpace(configPath) != "" {
		if err := app.LoadConfigFile(configPath, &cfg); err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("load config")
		}
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func run(cfg app.Config) error {
	if strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("llm.model is required")
	}

	var (
		renderer *scrape.RodRenderer
		err      error
	)
	if strings.TrimSpace(cfg.BrowserURL) != "" {
		renderer, err = scrape.Connect(cfg.BrowserURL)
	} else {
		renderer, err = scrape.Launch()
	}
	if err != nil {
		return fmt.Errorf("init browser: %w", err)
	}
	defer renderer.Close()

	a := app.New(cfg, llm.New(cfg.LLMBaseURL, cfg.LLMAPIKey), renderer)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port(cfg)),
		Handler:           (&httpapi.Server{Processor: a}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("modification service listening")
		errc <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func port(cfg app.Config) int {
	if cfg.Port > 0 {
		return cfg.Port
	}
	return app.DefaultPort
}
