// Package modification defines the data model shared by the backend
// pipeline and the client-side applicator: content categories, per-chunk
// decisions, synthesized patches, and the combined per-category response.
package modification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Category is one of the five fixed content buckets evaluated independently
// for modification.
type Category string

const (
	CategoryHTML        Category = "html"
	CategoryInlineCSS   Category = "inlineCSS"
	CategoryInlineJS    Category = "inlineJS"
	CategoryExternalCSS Category = "externalCSS"
	CategoryExternalJS  Category = "externalJS"
)

// Categories returns the fixed evaluation order used by the orchestrator.
func Categories() []Category {
	return []Category{
		CategoryHTML,
		CategoryInlineCSS,
		CategoryInlineJS,
		CategoryExternalCSS,
		CategoryExternalJS,
	}
}

// DisplayName returns the human-readable label used in model prompts.
func (c Category) DisplayName() string {
	switch c {
	case CategoryHTML:
		return "HTML"
	case CategoryInlineCSS:
		return "Inline CSS"
	case CategoryInlineJS:
		return "Inline JS"
	case CategoryExternalCSS:
		return "External CSS"
	case CategoryExternalJS:
		return "External JS"
	}
	return string(c)
}

// IsCSS reports whether the category carries stylesheet content.
func (c Category) IsCSS() bool {
	return c == CategoryInlineCSS || c == CategoryExternalCSS
}

// IsJS reports whether the category carries script content.
func (c Category) IsJS() bool {
	return c == CategoryInlineJS || c == CategoryExternalJS
}

// Decision is the boolean verdict on whether content needs modification.
// On the wire it is the string "true" or "false", which is what the
// applicator side compares against; in Go it is a plain bool.
type Decision bool

func (d Decision) MarshalJSON() ([]byte, error) {
	if d {
		return []byte(`"true"`), nil
	}
	return []byte(`"false"`), nil
}

func (d *Decision) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	switch strings.ToLower(s) {
	case "true":
		*d = true
	case "false":
		*d = false
	default:
		return fmt.Errorf("decision: unrecognized value %q", s)
	}
	return nil
}

// Result is the outcome for one chunk (or for whole-category content when no
// chunking was needed). ModifiedCode and Selector are either both set or
// both nil; a broken synthesis step nulls both rather than leaving a
// dangling selector.
type Result struct {
	// Chunk is the 1-based chunk index, zero for unchunked results.
	Chunk       int      `json:"chunk,omitempty"`
	Decision    Decision `json:"decision"`
	Explanation string   `json:"explanation"`
	ModifiedCode *string `json:"modifiedCode"`
	Selector     *string `json:"selector"`
}

// SetPatch attaches a synthesized patch, enforcing the both-or-neither
// invariant: empty code or an empty selector leaves both fields nil.
func (r *Result) SetPatch(code, selector string) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(selector) == "" {
		r.ModifiedCode = nil
		r.Selector = nil
		return
	}
	r.ModifiedCode = &code
	r.Selector = &selector
}

// Applicable reports whether the applicator should act on this result.
func (r Result) Applicable() bool {
	return bool(r.Decision) && r.ModifiedCode != nil && r.Selector != nil
}

// Entry is the per-category value of a combined response: a single result
// when the content fit the token budget, an ordered chunk list when it did
// not, or empty when the category's routing failed.
type Entry struct {
	Single *Result
	Chunks []Result
}

// Results normalizes the entry to a slice, preserving chunk order.
func (e Entry) Results() []Result {
	if e.Single != nil {
		return []Result{*e.Single}
	}
	return e.Chunks
}

// Empty reports whether the entry carries no results at all (the shape a
// failed category degrades to).
func (e Entry) Empty() bool {
	return e.Single == nil && len(e.Chunks) == 0
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Single != nil {
		return json.Marshal(e.Single)
	}
	if e.Chunks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e.Chunks)
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*e = Entry{}
		return nil
	}
	if trimmed[0] == '[' {
		e.Single = nil
		return json.Unmarshal(trimmed, &e.Chunks)
	}
	e.Chunks = nil
	e.Single = new(Result)
	return json.Unmarshal(trimmed, e.Single)
}

// CombinedResponse maps each content category to its routing outcome. The
// orchestrator owns it for the duration of one request; the client persists
// the last one applied.
type CombinedResponse map[Category]Entry
