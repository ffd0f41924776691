package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// Server exposes the node's health and lifecycle state over HTTP.
type Server struct {
	logger     zerolog.Logger
	httpPort   string
	httpServer *http.Server
	mux        *http.ServeMux
	actualAddr string
	mu         sync.RWMutex
}

// NewServer creates a Server reporting the given state function on /statusz
// and a plain OK on /healthz.
func NewServer(logger zerolog.Logger, httpPort string, state func() LifecycleState) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", HealthzHandler)
	mux.HandleFunc("/statusz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"state": state().String()})
	})

	return &Server{
		logger:   logger.With().Str("component", "Server").Logger(),
		httpPort: httpPort,
		mux:      mux,
		httpServer: &http.Server{
			Addr:    httpPort,
			Handler: mux,
		},
	}
}

// Start initiates the HTTP server in a background goroutine.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.httpPort, err)
	}

	s.mu.Lock()
	s.actualAddr = listener.Addr().String()
	s.mu.Unlock()

	s.logger.Info().Str("address", s.actualAddr).Msg("HTTP server starting to listen")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	return nil
}

// Shutdown gracefully stops the HTTP server, respecting the provided
// context's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error during HTTP server shutdown.")
		return err
	}
	s.logger.Info().Msg("HTTP server stopped.")
	return nil
}

// GetHTTPPort returns the actual port the server is listening on.
func (s *Server) GetHTTPPort() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, port, err := net.SplitHostPort(s.actualAddr)
	if err != nil {
		return s.httpPort
	}
	return ":" + port
}

// Mux returns the underlying ServeMux.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// HealthzHandler responds to health check probes.
func HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
