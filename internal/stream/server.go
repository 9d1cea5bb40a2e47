package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/AoWangg/chat-json/internal/config"
	"github.com/AoWangg/chat-json/internal/event"
)

const StreamPath = "/api/chat-stream"

// Server replays a fixed list of events as an SSE stream, one frame per
// event, paced by the request's delay parameter.
type Server struct {
	cfg          *config.ServerConfig
	events       []event.Event
	defaultDelay time.Duration
	server       *http.Server
	listener     net.Listener
	shutdownTTL  time.Duration
	started      bool
	mu           sync.RWMutex
}

func NewServer(cfg *config.ServerConfig, events []event.Event) (*Server, error) {
	replayDelay, err := config.DurationOrDefault(cfg.ReplayDelay, config.DefaultServerReplayDelay)
	if err != nil {
		return nil, fmt.Errorf("parse server replay delay: %w", err)
	}
	readTimeout, err := config.DurationOrDefault(cfg.ReadTimeout, config.DefaultServerReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server read timeout: %w", err)
	}
	writeTimeout, err := config.DurationOrDefault(cfg.WriteTimeout, config.DefaultServerWriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server write timeout: %w", err)
	}
	idleTimeout, err := config.DurationOrDefault(cfg.IdleTimeout, config.DefaultServerIdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server idle timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(cfg.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server shutdown timeout: %w", err)
	}

	s := &Server{
		cfg:          cfg,
		events:       events,
		defaultDelay: replayDelay,
		shutdownTTL:  shutdownTimeout,
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(StreamPath, s.handleStream)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start binds the configured port and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("stream server already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	go func() {
		slog.Info("Stream server listening", "component", "stream", "addr", ln.Addr().String(), "events", len(s.events))
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Stream server failed", "component", "stream", "error", err)
		}
	}()

	s.started = true
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	slog.Info("Stopping stream server...", "component", "stream")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTTL)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Stream server shutdown error", "component", "stream", "error", err)
		return err
	}

	s.started = false
	slog.Info("Stream server stopped", "component", "stream")
	return nil
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	delay := s.defaultDelay
	if raw := r.URL.Query().Get("delay"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			http.Error(w, "Invalid delay", http.StatusBadRequest)
			return
		}
		delay = time.Duration(ms) * time.Millisecond
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET")
	h.Set("Access-Control-Allow-Headers", "Cache-Control")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	for i, evt := range s.events {
		payload, err := json.Marshal(evt)
		if err != nil {
			slog.Error("Encode event failed", "component", "stream", "index", i, "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			slog.Debug("Client went away", "component", "stream", "sent", i, "error", err)
			return
		}
		flusher.Flush()

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", Done); err != nil {
		slog.Debug("Client went away before done", "component", "stream", "sent", len(s.events), "error", err)
		return
	}
	flusher.Flush()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"events": len(s.events),
	})
}
