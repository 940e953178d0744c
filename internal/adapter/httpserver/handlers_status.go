package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	apperrors "github.com/saisriabhiramnelluri/hiresphere/internal/platform/errors"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/version"
)

const readinessTimeout = 5 * time.Second

// HealthCheck is a named dependency check, e.g. the token store or the API breaker.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	// Session is omitted when the server has no state source.
	Session *readinessSession `json:"session,omitempty"`
}

type readinessSession struct {
	Loading       bool `json:"loading"`
	Authenticated bool `json:"authenticated"`
	Polling       bool `json:"polling"`
}

func (s *Server) registerStatusRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/state", s.handleState)
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// handleReadiness runs every check and reports each result. The client is
// not ready while a check fails or the stored session is still being
// restored; a signed-out client with no polling is still ready.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ready", Checks: make(map[string]string, len(s.healthChecks))}
	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			resp.Checks[hc.Name] = err.Error()
			resp.Status = "unavailable"
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}

	if s.state != nil {
		snap := s.state.Snapshot()
		resp.Session = &readinessSession{
			Loading:       snap.Session.Loading,
			Authenticated: snap.Session.Authenticated,
			Polling:       snap.Notifications.Polling,
		}
		if snap.Session.Loading {
			resp.Status = "unavailable"
		}
	}

	code := http.StatusOK
	if resp.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	if err := c.JSON(code, resp); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}

func (s *Server) handleState(c echo.Context) error {
	if s.state == nil {
		return apperrors.InternalError("", errors.New("no state source configured"))
	}
	if err := c.JSON(http.StatusOK, s.state.Snapshot()); err != nil {
		return fmt.Errorf("failed to write state response: %w", err)
	}
	return nil
}
