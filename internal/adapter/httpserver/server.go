// Package httpserver is the optional local status server of a long-running
// client: health checks, build info, Prometheus metrics and a snapshot of the
// session and notification state.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/metrics"
	"github.com/saisriabhiramnelluri/hiresphere/internal/app"
)

type stateSource interface {
	Snapshot() app.Snapshot
}

type Server struct {
	echo *echo.Echo
	addr string

	state        stateSource
	registry     *prometheus.Registry
	httpMetrics  *metrics.HTTPMetrics
	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer builds the status server. registry and httpMetrics may be nil,
// in which case /metrics is not served.
func NewServer(addr string, state stateSource, registry *prometheus.Registry, httpMetrics *metrics.HTTPMetrics, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		addr:         addr,
		state:        state,
		registry:     registry,
		httpMetrics:  httpMetrics,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	slog.Info("Starting status server", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil {
		return fmt.Errorf("failed to start status server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown status server: %w", err)
	}
	return nil
}
