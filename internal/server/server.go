// Package server exposes the assistant over HTTP: a chat endpoint with
// session support, session clearing, and health reporting, shaped like the
// hospital's public chatbot API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/hameedlatif/hospital-assistant/internal/config"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

const defaultAddress = ":8080"

// Server wraps the HTTP server around the configured router.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds the router and binds it to the configured address.
func NewServer(cfg *config.AppConfig, h *Handler, log *logger.Logger) (*Server, error) {
	router, err := NewRouter(cfg, h, log)
	if err != nil {
		return nil, err
	}

	addr := cfg.Server.Address
	if addr == "" {
		addr = defaultAddress
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}, nil
}

// ListenAndServe starts serving requests. It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.WithField("address", s.httpServer.Addr).Info("Starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server, letting in-flight requests finish until the
// context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
