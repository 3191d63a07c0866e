package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/talgya/firewatch/internal/sim"
)

// Server serves the latest snapshot over HTTP and streams every snapshot over
// the hub. All endpoints are read-only.
type Server struct {
	hub    *Hub
	latest atomic.Pointer[sim.Snapshot]
}

// NewServer creates a server and starts its hub loop.
func NewServer() *Server {
	s := &Server{hub: NewHub()}
	go s.hub.Run()
	return s
}

// Publish stores a snapshot as the latest and broadcasts it to viewers.
// Snapshots are immutable once published, so concurrent readers need no lock.
func (s *Server) Publish(snap *sim.Snapshot) {
	s.latest.Store(snap)
	frame, err := json.Marshal(snap)
	if err != nil {
		slog.Error("snapshot marshal failed", "tick", snap.Tick, "error", err)
		return
	}
	s.hub.Broadcast(frame)
}

// Latest returns the most recently published snapshot, nil before the first.
func (s *Server) Latest() *sim.Snapshot {
	return s.latest.Load()
}

// Handler returns the HTTP mux: /api/v1/status, /api/v1/snapshot, /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("/ws", s.hub.ServeWs)
	return mux
}

// Start begins serving in a background goroutine.
func (s *Server) Start(port int) {
	go func() {
		addr := fmt.Sprintf(":%d", port)
		slog.Info("snapshot server listening", "addr", addr)
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("snapshot server stopped", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.latest.Load()
	status := map[string]any{"tick": uint64(0), "state": sim.StateName(sim.StateInitialized)}
	if snap != nil {
		status = map[string]any{
			"tick":     snap.Tick,
			"state":    sim.StateName(snap.State),
			"igniting": snap.Igniting,
			"burning":  snap.Burning,
			"burnt":    snap.Burnt,
			"drones":   len(snap.Drones),
		}
	}
	writeJSON(w, status)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.latest.Load()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
