// Package httpapi exposes the modification pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/app"
	"github.com/reskindev/reskin/internal/modification"
)

// Processor handles one modification request end to end.
type Processor interface {
	Process(ctx context.Context, webpageLink, userCommand string) (modification.CombinedResponse, error)
}

// Server carries the HTTP surface around the processor.
type Server struct {
	Processor Processor
}

type processRequest struct {
	WebpageLink string `json:"webpageLink"`
	UserCommand string `json:"userCommand"`
}

type processResponse struct {
	Success             bool                          `json:"success"`
	ModificationsNeeded modification.CombinedResponse `json:"modificationsNeeded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router builds the chi router with logging, recovery, and CORS. The
// extension front end calls from arbitrary page origins, so CORS is
// permissive.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/api/process", s.handleProcess)
	return r
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required parameters."})
		return
	}

	combined, err := s.Processor.Process(r.Context(), req.WebpageLink, req.UserCommand)
	if err != nil {
		if errors.Is(err, app.ErrMissingParams) {
			log.Warn().Str("url", req.WebpageLink).Msg("request missing parameters")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required parameters."})
			return
		}
		log.Error().Err(err).Str("url", req.WebpageLink).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	log.Info().Str("url", req.WebpageLink).Dur("elapsed", time.Since(start)).Msg("modifications generated")
	writeJSON(w, http.StatusOK, processResponse{Success: true, ModificationsNeeded: combined})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// corsMiddleware allows any origin; the agent and the page-side applicator
// call from origins we cannot enumerate.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
