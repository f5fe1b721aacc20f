// Package server exposes the analytics engine over HTTP. Every dashboard
// request computes from a fresh store snapshot; the server holds no derived
// state between requests.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/opspulse/opspulse/internal/model"
	"github.com/opspulse/opspulse/pkg/dashboard"
	"github.com/opspulse/opspulse/pkg/store"
)

// Server handles HTTP requests for the dashboard API.
type Server struct {
	store   store.EventStore
	builder *dashboard.Builder
	broker  *SSEBroker
	mux     *http.ServeMux
}

// NewServer creates a server over the given store and builder.
func NewServer(eventStore store.EventStore, builder *dashboard.Builder) *Server {
	s := &Server{
		store:   eventStore,
		builder: builder,
		broker:  NewSSEBroker(),
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures HTTP handlers.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/stream", s.broker.ServeHTTP)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// CORS headers for development
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.mux.ServeHTTP(w, r)
}

// NotifyRefresh tells connected SSE clients that the event log changed and
// the dashboard is worth rebuilding. The watcher calls this in serve mode.
func (s *Server) NotifyRefresh() {
	s.broker.Publish(SSEEvent{Event: "refresh", Data: map[string]string{
		"reason": "eventlog-changed",
	}})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleDashboard builds and returns the dashboard for ?period= (default week).
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	periodParam := r.URL.Query().Get("period")
	if periodParam == "" {
		periodParam = string(dashboard.PeriodWeek)
	}
	period, err := dashboard.ParsePeriod(periodParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := s.builder.Build(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleEvents appends a new event. The store assigns ID and timestamp;
// whatever the caller sent for those fields is discarded.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var e model.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	if e.UserID == "" || e.Module == "" || e.Action == "" {
		writeError(w, http.StatusBadRequest, "userId, module and action are required")
		return
	}

	if err := s.store.Append(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.broker.Publish(SSEEvent{Event: "event-appended", Data: map[string]string{
		"module": string(e.Module),
		"action": e.Action,
	}})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
