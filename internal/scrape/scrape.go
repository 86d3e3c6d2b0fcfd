// Package scrape fetches a page through a headless browser and extracts the
// five content categories the pipeline evaluates: the full HTML, inline
// style and script fragments, and the bodies of externally linked CSS and JS
// files keyed by resolved absolute URL.
package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/modification"
)

// Renderer loads a page in a real browser and returns the rendered HTML.
type Renderer interface {
	RenderHTML(ctx context.Context, pageURL string) (string, error)
}

// Asset is one fetched external file, keyed by its resolved absolute URL.
// Document order is preserved so joined payloads are deterministic.
type Asset struct {
	URL  string
	Body string
}

// PageData holds everything extracted from one page.
type PageData struct {
	HTML        string
	InlineCSS   []string
	InlineJS    []string
	ExternalCSS []Asset
	ExternalJS  []Asset
}

// Payload serializes one category to the string content the router
// evaluates. This is the single point where container-shaped data becomes a
// string; downstream code only ever sees string content.
func (p PageData) Payload(c modification.Category) string {
	switch c {
	case modification.CategoryHTML:
		return p.HTML
	case modification.CategoryInlineCSS:
		return strings.Join(p.InlineCSS, "\n")
	case modification.CategoryInlineJS:
		return strings.Join(p.InlineJS, "\n")
	case modification.CategoryExternalCSS:
		return joinAssets(p.ExternalCSS)
	case modification.CategoryExternalJS:
		return joinAssets(p.ExternalJS)
	}
	return ""
}

func joinAssets(assets []Asset) string {
	bodies := make([]string, 0, len(assets))
	for _, a := range assets {
		bodies = append(bodies, a.Body)
	}
	return strings.Join(bodies, "\n")
}

// Scraper renders a page and gathers its content categories.
type Scraper struct {
	Renderer Renderer
	Assets   *AssetClient
}

// Scrape loads pageURL, extracts inline fragments and external links, and
// fetches the linked files. A single failed asset is logged and omitted;
// only the page render itself is fatal.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (PageData, error) {
	html, err := s.Renderer.RenderHTML(ctx, pageURL)
	if err != nil {
		return PageData{}, fmt.Errorf("render %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return PageData{}, fmt.Errorf("parse page url: %w", err)
	}

	parts := ExtractParts(html)
	data := PageData{
		HTML:      html,
		InlineCSS: parts.InlineCSS,
		InlineJS:  parts.InlineJS,
	}
	data.ExternalCSS = s.fetchAll(ctx, base, parts.CSSLinks)
	data.ExternalJS = s.fetchAll(ctx, base, parts.JSLinks)

	log.Debug().
		Str("url", pageURL).
		Int("inline_css", len(data.InlineCSS)).
		Int("inline_js", len(data.InlineJS)).
		Int("external_css", len(data.ExternalCSS)).
		Int("external_js", len(data.ExternalJS)).
		Msg("page scraped")
	return data, nil
}

func (s *Scraper) fetchAll(ctx context.Context, base *url.URL, links []string) []Asset {
	assets := make([]Asset, 0, len(links))
	for _, link := range links {
		abs, ok := ResolveLink(base, link)
		if !ok {
			continue
		}
		body, err := s.Assets.Get(ctx, abs)
		if err != nil {
			log.Warn().Err(err).Str("url", abs).Msg("failed to fetch external file, omitting")
			continue
		}
		assets = append(assets, Asset{URL: abs, Body: string(body)})
	}
	return assets
}

// ResolveLink turns a document link into an absolute http(s) URL.
// Protocol-relative links default to https. Unresolvable or non-network
// links (data:, javascript:, empty) are rejected.
func ResolveLink(base *url.URL, link string) (string, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}
	if strings.HasPrefix(link, "//") {
		link = "https:" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	return abs.String(), true
}
