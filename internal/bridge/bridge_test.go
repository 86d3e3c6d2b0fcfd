package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/reskindev/reskin/internal/applier"
	"github.com/reskindev/reskin/internal/modification"
	"github.com/reskindev/reskin/internal/store"
)

type recordingPage struct {
	mu    sync.Mutex
	rules map[string]string
	fail  bool
}

func newRecordingPage() *recordingPage {
	return &recordingPage{rules: map[string]string{}}
}

func (p *recordingPage) AppendInlineStyle(context.Context, string, string, string) (int, error) {
	return 1, nil
}

func (p *recordingPage) UpsertStyleRule(_ context.Context, id, ruleText string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("injection blocked")
	}
	p.rules[id] = ruleText
	return nil
}

func (p *recordingPage) UpsertScript(context.Context, string, string) error { return nil }

func (p *recordingPage) ObserveChildList(context.Context, func()) (func(), error) {
	return func() {}, nil
}

func serviceStub(t *testing.T, combined modification.CombinedResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/process" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req processRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WebpageLink == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Missing required parameters."})
			return
		}
		json.NewEncoder(w).Encode(processResponse{Success: true, ModificationsNeeded: combined})
	}))
}

func cssCombined() modification.CombinedResponse {
	code := "color: red;"
	sel := "p.title"
	return modification.CombinedResponse{
		modification.CategoryInlineCSS: {Single: &modification.Result{
			Decision:     true,
			Explanation:  "requested",
			ModifiedCode: &code,
			Selector:     &sel,
		}},
	}
}

func TestModifyAppliesAndPersists(t *testing.T) {
	srv := serviceStub(t, cssCombined())
	defer srv.Close()

	st, err := store.Open(filepath.Join(t.TempDir(), "reskin.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	page := newRecordingPage()
	m := &Messenger{
		Client:     &Client{BaseURL: srv.URL},
		Applicator: &applier.Applicator{Page: page},
		Store:      st,
	}

	ack, err := m.Modify(context.Background(), "https://example.com", "make the title red")
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if ack.Status != StatusOK || ack.Report.Applied != 1 {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if len(page.rules) != 1 {
		t.Fatalf("rule not injected: %+v", page.rules)
	}

	sv, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sv.URL != "https://example.com" || sv.Command != "make the title red" {
		t.Fatalf("persisted record mismatch: %+v", sv)
	}
}

func TestModifyServiceErrorAcksError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
	}))
	defer srv.Close()

	m := &Messenger{
		Client:     &Client{BaseURL: srv.URL},
		Applicator: &applier.Applicator{Page: newRecordingPage()},
	}
	ack, err := m.Modify(context.Background(), "https://example.com", "x")
	if err == nil {
		t.Fatal("want error from failing service")
	}
	if ack.Status != StatusError || ack.Reason == "" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestModifyAllApplyFailuresAckError(t *testing.T) {
	srv := serviceStub(t, cssCombined())
	defer srv.Close()

	page := newRecordingPage()
	page.fail = true
	m := &Messenger{
		Client:     &Client{BaseURL: srv.URL},
		Applicator: &applier.Applicator{Page: page},
	}
	ack, err := m.Modify(context.Background(), "https://example.com", "x")
	if err == nil {
		t.Fatal("want error when nothing applied")
	}
	if ack.Status != StatusError || ack.Report.Failed != 1 {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestReplayRestoresSavedSet(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "reskin.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	if _, err := st.Save(context.Background(), "https://example.com", "x", cssCombined()); err != nil {
		t.Fatalf("save: %v", err)
	}

	page := newRecordingPage()
	m := &Messenger{Applicator: &applier.Applicator{Page: page}, Store: st}
	ack, err := m.Replay(context.Background())
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if ack.Status != StatusOK || ack.Report.Applied != 1 {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if len(page.rules) != 1 {
		t.Fatal("replay should inject the saved rule")
	}
}

func TestReplayEmptyStoreIsNoop(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "reskin.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	m := &Messenger{Applicator: &applier.Applicator{Page: newRecordingPage()}, Store: st}
	ack, err := m.Replay(context.Background())
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if ack.Status != StatusOK {
		t.Fatalf("empty store should ack ok: %+v", ack)
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{
		StatusPending: "pending",
		StatusOK:      "ok",
		StatusPartial: "partial",
		StatusError:   "error",
		Status(9):     "status(9)",
	} {
		if got := s.String(); got != want {
			t.Fatalf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
