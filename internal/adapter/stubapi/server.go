// Package stubapi is a local stand-in for the HireSphere REST API. It serves
// the auth and notification endpoints the client uses from an in-memory
// Backend, wrapping every answer in the {success, message, data} envelope.
package stubapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/metrics"
)

type ServerConfig struct {
	Addr       string
	LoginRate  float64 // login attempts per second per client IP
	LoginBurst int
	// Registry, when set, is served on /metrics.
	Registry *prometheus.Registry
}

type Server struct {
	echo    *echo.Echo
	backend *Backend
	config  ServerConfig
	metrics *metrics.HTTPMetrics
}

// NewServer builds the echo router. m may be nil.
func NewServer(backend *Backend, cfg ServerConfig, m *metrics.HTTPMetrics) *Server {
	if cfg.LoginRate <= 0 {
		cfg.LoginRate = 1
	}
	if cfg.LoginBurst < 1 {
		cfg.LoginBurst = 10
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:    e,
		backend: backend,
		config:  cfg,
		metrics: m,
	}
	srv.registerRoutes()
	return srv
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	slog.Info("Starting stub API", "addr", s.config.Addr)
	if err := s.echo.Start(s.config.Addr); err != nil {
		return fmt.Errorf("failed to start stub API: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown stub API: %w", err)
	}
	return nil
}
