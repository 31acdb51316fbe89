// Package api implements the HTTP API for serve mode.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mentorlabs/mentor/internal/agent"
	"github.com/mentorlabs/mentor/internal/memory"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server exposes one tutoring session over HTTP. Requests are handled
// strictly one at a time: the session's memory store assumes a single
// caller, so turns are serialized through a channel-based gate.
type Server struct {
	address  string
	port     int
	loop     *agent.Loop
	store    *memory.Store
	logger   *slog.Logger
	server   *http.Server
	turnGate chan struct{}
}

// NewServer creates the API server for one session loop.
func NewServer(address string, port int, loop *agent.Loop, store *memory.Store, logger *slog.Logger) *Server {
	s := &Server{
		address:  address,
		port:     port,
		loop:     loop,
		store:    store,
		logger:   logger,
		turnGate: make(chan struct{}, 1),
	}
	s.turnGate <- struct{}{}
	return s
}

// TurnRequest is the POST /api/turn request body.
type TurnRequest struct {
	Input       string `json:"input"`
	Correctness *bool  `json:"correctness,omitempty"`
	Rating      *int   `json:"rating,omitempty"`
}

// TurnResponse is the POST /api/turn response body.
type TurnResponse struct {
	Reply      string `json:"reply"`
	SkillLevel int    `json:"skill_level"`
	SessionID  string `json:"session_id"`
}

// ProfileResponse is the GET /api/profile response body.
type ProfileResponse struct {
	Name           string  `json:"name"`
	SkillLevel     int     `json:"skill_level"`
	EstimatedSkill float64 `json:"estimated_skill"`
	TargetDomain   string  `json:"target_domain"`
	Interactions   int     `json:"interactions"`
	Summary        string  `json:"summary"`
}

// Handler returns the route mux, exported so tests can drive it with
// httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/turn", s.handleTurn)
	mux.HandleFunc("GET /api/profile", s.handleProfile)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.address, s.port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("API server listening", "addr", addr, "session", s.loop.SessionID())
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Input == "" {
		http.Error(w, "input is required", http.StatusBadRequest)
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		http.Error(w, "rating must be 1..5", http.StatusBadRequest)
		return
	}

	// One turn at a time per session.
	select {
	case <-s.turnGate:
		defer func() { s.turnGate <- struct{}{} }()
	case <-r.Context().Done():
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	reply, err := s.loop.HandleTurn(r.Context(), req.Input, agent.Feedback{
		Correctness: req.Correctness,
		Rating:      req.Rating,
	})
	if err != nil {
		s.logger.Error("turn failed", "error", err)
		http.Error(w, "model backend unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, TurnResponse{
		Reply:      reply,
		SkillLevel: s.store.SkillLevel(),
		SessionID:  s.loop.SessionID(),
	}, s.logger)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p := s.store.Profile()
	writeJSON(w, ProfileResponse{
		Name:           p.Name,
		SkillLevel:     p.SkillLevel,
		EstimatedSkill: p.EstimateSkill(),
		TargetDomain:   p.TargetDomain,
		Interactions:   len(p.History),
		Summary:        s.store.Summary(),
	}, s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, s.logger)
}
