package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reskindev/reskin/internal/app"
	"github.com/reskindev/reskin/internal/modification"
)

type stubProcessor struct {
	combined modification.CombinedResponse
	err      error
	calls    int
}

func (s *stubProcessor) Process(_ context.Context, link, cmd string) (modification.CombinedResponse, error) {
	if strings.TrimSpace(link) == "" || strings.TrimSpace(cmd) == "" {
		return nil, app.ErrMissingParams
	}
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.combined, nil
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProcessSuccess(t *testing.T) {
	code := "background-color:red;"
	sel := "div"
	proc := &stubProcessor{combined: modification.CombinedResponse{
		modification.CategoryHTML: {Single: &modification.Result{
			Decision: true, Explanation: "background color should change",
			ModifiedCode: &code, Selector: &sel,
		}},
		modification.CategoryInlineCSS: {},
	}}
	h := (&Server{Processor: proc}).Router()

	rec := post(t, h, `{"webpageLink":"https://example.com","userCommand":"make background red"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success             bool                          `json:"success"`
		ModificationsNeeded modification.CombinedResponse `json:"modificationsNeeded"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatal("success flag missing")
	}
	entry := resp.ModificationsNeeded[modification.CategoryHTML]
	if entry.Single == nil || !bool(entry.Single.Decision) {
		t.Fatalf("html entry lost: %+v", entry)
	}
	// Wire shape: decision is a string.
	if !strings.Contains(rec.Body.String(), `"decision":"true"`) {
		t.Fatalf("decision must serialize as a string: %s", rec.Body.String())
	}
	// Failed/empty category stays present as [].
	if !strings.Contains(rec.Body.String(), `"inlineCSS":[]`) {
		t.Fatalf("empty entry should serialize as []: %s", rec.Body.String())
	}
}

func TestProcessMissingParams(t *testing.T) {
	proc := &stubProcessor{}
	h := (&Server{Processor: proc}).Router()

	for _, body := range []string{
		`{"webpageLink":"","userCommand":"x"}`,
		`{"webpageLink":"https://example.com"}`,
		`{}`,
		`not json`,
	} {
		rec := post(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Missing required parameters.") {
			t.Fatalf("body %q: error message mismatch: %s", body, rec.Body.String())
		}
	}
	if proc.calls != 0 {
		t.Fatalf("invalid requests must not reach processing, got %d calls", proc.calls)
	}
}

func TestProcessInternalError(t *testing.T) {
	proc := &stubProcessor{err: errors.New("puppet strings snapped")}
	h := (&Server{Processor: proc}).Router()

	rec := post(t, h, `{"webpageLink":"https://example.com","userCommand":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Fatalf("error body: %s", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := (&Server{Processor: &stubProcessor{}}).Router()
	req := httptest.NewRequest(http.MethodOptions, "/api/process", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("CORS header missing")
	}
}
