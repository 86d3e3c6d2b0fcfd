// Package bridge connects the page-side applicator to the modification
// service: it requests a modification set over HTTP, applies it, persists
// it, and reports back a typed acknowledgment.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/applier"
	"github.com/reskindev/reskin/internal/modification"
	"github.com/reskindev/reskin/internal/store"
)

// Status is the outcome class of one request/apply cycle.
type Status int

const (
	// StatusPending is the zero value; no cycle has completed yet.
	StatusPending Status = iota
	// StatusOK means the set was fetched and fully applied.
	StatusOK
	// StatusPartial means the set was fetched but some results failed to
	// apply.
	StatusPartial
	// StatusError means no modifications were applied.
	StatusError
)

// String implements fmt.Stringer for logs.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Ack is the acknowledgment produced for every cycle. The requester always
// receives one, success or not.
type Ack struct {
	Status Status
	Reason string
	Report applier.Report
}

// Client calls the modification service.
type Client struct {
	// BaseURL is the service root, for example http://localhost:5000.
	BaseURL string
	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
	// Timeout bounds one request when positive.
	Timeout time.Duration
}

type processRequest struct {
	WebpageLink string `json:"webpageLink"`
	UserCommand string `json:"userCommand"`
}

type processResponse struct {
	Success             bool                          `json:"success"`
	ModificationsNeeded modification.CombinedResponse `json:"modificationsNeeded"`
	Error               string                        `json:"error"`
}

// Request asks the service to generate modifications for the page at
// webpageLink according to userCommand.
func (c *Client) Request(ctx context.Context, webpageLink, userCommand string) (modification.CombinedResponse, error) {
	body, err := json.Marshal(processRequest{WebpageLink: webpageLink, UserCommand: userCommand})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/process", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call modification service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var pr processResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !pr.Success {
		msg := pr.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("modification service: %s", msg)
	}
	return pr.ModificationsNeeded, nil
}

// Messenger runs request/apply/persist cycles.
type Messenger struct {
	Client     *Client
	Applicator *applier.Applicator
	Store      *store.Store
}

// Modify performs one full cycle and always returns an Ack describing the
// outcome. The error is non-nil only when nothing was applied.
func (m *Messenger) Modify(ctx context.Context, webpageLink, userCommand string) (Ack, error) {
	combined, err := m.Client.Request(ctx, webpageLink, userCommand)
	if err != nil {
		return Ack{Status: StatusError, Reason: err.Error()}, err
	}

	rep := m.Applicator.Apply(ctx, combined)
	log.Info().
		Int("applied", rep.Applied).
		Int("failed", rep.Failed).
		Str("url", webpageLink).
		Msg("modification set applied")

	if m.Store != nil {
		if _, err := m.Store.Save(ctx, webpageLink, userCommand, combined); err != nil {
			log.Warn().Err(err).Msg("persist modifications")
		}
	}

	ack := Ack{Report: rep}
	switch {
	case rep.Failed == 0:
		ack.Status = StatusOK
	case rep.Applied > 0:
		ack.Status = StatusPartial
		ack.Reason = fmt.Sprintf("%d of %d results failed", rep.Failed, rep.Applied+rep.Failed)
	default:
		ack.Status = StatusError
		ack.Reason = "all results failed to apply"
		return ack, fmt.Errorf("apply: %s", ack.Reason)
	}
	return ack, nil
}

// Replay re-applies the persisted set, if any. It is called on page load so
// earlier modifications survive a refresh.
func (m *Messenger) Replay(ctx context.Context) (Ack, error) {
	if m.Store == nil {
		return Ack{Status: StatusOK}, nil
	}
	sv, err := m.Store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Ack{Status: StatusOK, Reason: "nothing to replay"}, nil
		}
		return Ack{Status: StatusError, Reason: err.Error()}, err
	}

	rep := m.Applicator.Apply(ctx, sv.Combined)
	log.Info().Str("id", sv.ID).Str("url", sv.URL).Int("applied", rep.Applied).Msg("saved modifications replayed")

	ack := Ack{Report: rep}
	if rep.Failed == 0 {
		ack.Status = StatusOK
	} else if rep.Applied > 0 {
		ack.Status = StatusPartial
	} else {
		ack.Status = StatusError
	}
	return ack, nil
}
