package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog/log"
)

// RodRenderer renders pages in a headless Chrome controlled via Rod. Pages
// are created with stealth applied so automation-hostile sites still serve
// their real markup.
type RodRenderer struct {
	Browser *rod.Browser
	// NavTimeout bounds navigation and load. Zero means default (30s).
	NavTimeout time.Duration
}

// Launch starts a local headless Chrome and connects to it.
func Launch() (*RodRenderer, error) {
	u, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect chrome: %w", err)
	}
	return &RodRenderer{Browser: b}, nil
}

// Connect attaches to an already-running Chrome over its websocket URL.
func Connect(controlURL string) (*RodRenderer, error) {
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect chrome %s: %w", controlURL, err)
	}
	return &RodRenderer{Browser: b}, nil
}

// RenderHTML implements Renderer: open a stealth tab, navigate, wait for
// load, and serialize the document. The tab is always closed.
func (r *RodRenderer) RenderHTML(ctx context.Context, pageURL string) (string, error) {
	page, err := stealth.Page(r.Browser)
	if err != nil {
		return "", fmt.Errorf("create tab: %w", err)
	}
	defer page.Close()

	timeout := r.NavTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		// A slow page is still worth scraping in whatever state it reached.
		log.Warn().Err(err).Str("url", pageURL).Msg("wait load timed out, using current state")
	}

	html, err := page.Context(navCtx).HTML()
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", pageURL, err)
	}
	return html, nil
}

// Close shuts the browser down.
func (r *RodRenderer) Close() error {
	if r.Browser != nil {
		return r.Browser.Close()
	}
	return nil
}
