// Package app is the page-level entry point: it scrapes a page, runs the
// per-category decision pipeline over the five content categories, and
// assembles the combined result the HTTP layer returns.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/modification"
	"github.com/reskindev/reskin/internal/router"
	"github.com/reskindev/reskin/internal/scrape"
	"github.com/reskindev/reskin/internal/token"
)

// ErrMissingParams signals a request that lacks the webpage link or the
// user command; it maps to a client error, and no fetch is attempted.
var ErrMissingParams = errors.New("missing required parameters")

// App orchestrates one modification request end to end.
type App struct {
	Scraper *scrape.Scraper
	Router  *router.Router
	Counter token.Counter
}

// Process validates the request, scrapes the page, and routes each category
// sequentially. A page-fetch failure is fatal to the whole request; a
// failure inside one category degrades to an empty entry for that category
// only (the router absorbs those).
func (a *App) Process(ctx context.Context, webpageLink, userCommand string) (modification.CombinedResponse, error) {
	if strings.TrimSpace(webpageLink) == "" || strings.TrimSpace(userCommand) == "" {
		return nil, ErrMissingParams
	}

	logger := log.With().Str("request_id", uuid.NewString()).Str("url", webpageLink).Logger()
	logger.Info().Msg("processing modification request")

	data, err := a.Scraper.Scrape(ctx, webpageLink)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	combined := make(modification.CombinedResponse, 5)
	for _, cat := range modification.Categories() {
		payload := data.Payload(cat)
		if a.Counter != nil {
			logger.Debug().
				Str("category", string(cat)).
				Int("tokens", a.Counter.Count(ctx, payload)).
				Msg("category measured")
		}
		combined[cat] = a.Router.Route(ctx, cat, payload, userCommand)
	}

	logger.Info().Msg("modification request complete")
	return combined, nil
}
