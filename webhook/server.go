// Package webhook exposes the HTTP surface: the call-completion callback
// from the voice provider plus health and manual-trigger endpoints.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// CallResultHandler consumes completed-call transcripts.
type CallResultHandler interface {
	HandleCallResult(ctx context.Context, transcript, status string) error
}

// CycleTrigger starts an advisor cycle on demand.
type CycleTrigger interface {
	Trigger(ctx context.Context) error
}

// Server is the webhook HTTP server.
type Server struct {
	addr    string
	handler CallResultHandler
	trigger CycleTrigger
	log     zerolog.Logger
	httpSrv *http.Server
}

// New creates the server. trigger may be nil to disable manual runs.
func New(addr string, handler CallResultHandler, trigger CycleTrigger, log zerolog.Logger) *Server {
	s := &Server{
		addr:    addr,
		handler: handler,
		trigger: trigger,
		log:     log.With().Str("component", "webhook").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Post("/webhook/voice", s.handleCallResult)
	r.Post("/check", s.handleCheck)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.addr).Msg("webhook server listening")
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCallResult receives the voice provider's call-completion payload.
func (s *Server) handleCallResult(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Transcript string `json:"transcript"`
		Status     string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid JSON body"})
		return
	}

	if err := s.handler.HandleCallResult(r.Context(), payload.Transcript, payload.Status); err != nil {
		s.log.Error().Err(err).Msg("handle call result")
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleCheck runs an advisor cycle immediately.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if s.trigger == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "manual trigger disabled"})
		return
	}
	if err := s.trigger.Trigger(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
