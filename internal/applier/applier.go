// Package applier commits a combined modification response to a live page
// and keeps it asserted: duplicate-selector suppression, idempotent
// re-application through stable injection ids, and re-assertion whenever
// the document mutates underneath the injected nodes.
package applier

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/modification"
)

// Page is the live-document surface the applicator writes to. Implementations
// must be idempotent per injection id: re-applying the same id replaces or
// skips rather than duplicating DOM nodes.
type Page interface {
	// AppendInlineStyle appends css text onto the style attribute of every
	// element matching selector that is not yet marked with id, marking each
	// as it goes. It returns the number of elements newly styled.
	AppendInlineStyle(ctx context.Context, id, selector, css string) (int, error)
	// UpsertStyleRule installs ruleText into the document's last stylesheet
	// (creating one if none exists), replacing any prior rule with the same id.
	UpsertStyleRule(ctx context.Context, id, ruleText string) error
	// UpsertScript injects js as a script element, replacing any prior
	// script with the same id.
	UpsertScript(ctx context.Context, id, js string) error
	// ObserveChildList invokes fn on any child-list change anywhere in the
	// document subtree until stop is called.
	ObserveChildList(ctx context.Context, fn func()) (stop func(), err error)
}

// rootSelectors may legitimately receive multiple independent rules in one
// pass; every other selector is applied at most once per pass.
var rootSelectors = map[string]struct{}{
	"html":  {},
	":root": {},
	"body":  {},
}

// Report summarizes one application pass.
type Report struct {
	Applied        int
	Skipped        int
	DuplicateSkips int
	Failed         int
}

// Applicator applies modification sets to a Page.
type Applicator struct {
	Page Page
}

// Apply walks the combined response in category order, normalizes single
// results to one-element lists, and commits each applicable entry. Repeat
// selectors within the pass are skipped with a log line, not an error.
func (a *Applicator) Apply(ctx context.Context, combined modification.CombinedResponse) Report {
	var rep Report
	seen := make(map[string]struct{})

	for _, cat := range modification.Categories() {
		entry, ok := combined[cat]
		if !ok {
			continue
		}
		for _, res := range entry.Results() {
			if !res.Applicable() {
				rep.Skipped++
				continue
			}
			selector := strings.TrimSpace(*res.Selector)
			if _, dup := seen[selector]; dup {
				if _, root := rootSelectors[selector]; !root {
					log.Info().Str("selector", selector).Str("category", string(cat)).Msg("duplicate selector, skipping")
					rep.DuplicateSkips++
					continue
				}
			}
			seen[selector] = struct{}{}

			if err := a.applyOne(ctx, cat, selector, *res.ModifiedCode); err != nil {
				log.Warn().Err(err).Str("selector", selector).Str("category", string(cat)).Msg("apply failed")
				rep.Failed++
				continue
			}
			rep.Applied++
		}
	}
	return rep
}

func (a *Applicator) applyOne(ctx context.Context, cat modification.Category, selector, code string) error {
	id := injectionID(cat, selector, code)
	switch {
	case cat == modification.CategoryHTML:
		n, err := a.Page.AppendInlineStyle(ctx, id, selector, code)
		if err != nil {
			return err
		}
		log.Debug().Str("selector", selector).Int("elements", n).Msg("inline style appended")
		return nil
	case cat.IsCSS():
		rule := fmt.Sprintf("%s { %s }", selector, ForceImportant(code))
		return a.Page.UpsertStyleRule(ctx, id, rule)
	case cat.IsJS():
		return a.Page.UpsertScript(ctx, id, code)
	}
	return fmt.Errorf("unknown category %q", cat)
}

// injectionID derives a stable id for one modification so re-application
// replaces instead of duplicating.
func injectionID(cat modification.Category, selector, code string) string {
	h := sha1.Sum([]byte(string(cat) + "\x00" + selector + "\x00" + code))
	return "reskin-" + hex.EncodeToString(h[:6])
}

// ForceImportant appends !important to every declaration in a CSS snippet
// that does not already carry it, so injected rules win over the page's own
// stylesheet specificity.
func ForceImportant(css string) string {
	parts := strings.Split(css, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		decl := strings.TrimSpace(p)
		if decl == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(decl), "!important") {
			decl += " !important"
		}
		out = append(out, decl)
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "; ") + ";"
}
