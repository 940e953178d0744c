package stubapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/metrics"
	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	apperrors "github.com/saisriabhiramnelluri/hiresphere/internal/platform/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(requestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	if s.metrics != nil {
		s.echo.Use(s.metrics.Middleware("stub"))
	}
	s.echo.Use(envelopeMiddleware())

	auth := s.echo.Group("/api/auth")
	auth.POST("/register", s.handleRegister)
	auth.POST("/login", s.handleLogin, newLoginRateLimiter(s.config.LoginRate, s.config.LoginBurst))
	auth.GET("/me", s.handleMe, s.requireAuth)

	notifications := s.echo.Group("/api/notifications", s.requireAuth)
	notifications.GET("", s.handleListNotifications)
	notifications.PUT("/read-all", s.handleMarkAllRead)
	notifications.PUT("/:id/read", s.handleMarkRead)
	notifications.DELETE("/:id", s.handleDeleteNotification)

	admin := s.echo.Group("/api/admin", s.requireAuth, requireRole(domain.RoleAdmin))
	admin.POST("/notifications", s.handlePublish)

	if s.config.Registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.config.Registry)))
	}
}

var accountFields = []string{"name", "email", "password", "role"}

// handleRegister accepts one flat object; everything besides the account
// fields is kept as the role-specific profile.
func (s *Server) handleRegister(c echo.Context) error {
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}

	str := func(k string) string {
		v, _ := body[k].(string)
		return v
	}
	req := domain.RegisterRequest{
		Name:     str("name"),
		Email:    str("email"),
		Password: str("password"),
		Role:     domain.Role(str("role")),
		Details:  body,
	}
	for _, k := range accountFields {
		delete(req.Details, k)
	}

	if err := s.backend.Register(c.Request().Context(), req); err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "User registered successfully", map[string]any{})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}

	res, err := s.backend.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Login successful", res)
}

func (s *Server) handleMe(c echo.Context) error {
	id, _ := c.Get(ctxKeyIdentity).(*domain.Identity)
	return respond(c, http.StatusOK, "", id)
}

func (s *Server) handleListNotifications(c echo.Context) error {
	limit := DefaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.ValidationError("limit must be a positive integer")
		}
		limit = n
	}

	page, err := s.backend.List(c.Request().Context(), currentUser(c).ID, limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", page)
}

func (s *Server) handleMarkRead(c echo.Context) error {
	if err := s.backend.MarkRead(c.Request().Context(), currentUser(c).ID, c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Notification marked as read", nil)
}

func (s *Server) handleMarkAllRead(c echo.Context) error {
	if err := s.backend.MarkAllRead(c.Request().Context(), currentUser(c).ID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "All notifications marked as read", nil)
}

func (s *Server) handleDeleteNotification(c echo.Context) error {
	if err := s.backend.Delete(c.Request().Context(), currentUser(c).ID, c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Notification deleted", nil)
}

type publishRequest struct {
	Email string `json:"email"`
	domain.Notification
}

func (s *Server) handlePublish(c echo.Context) error {
	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if req.Email == "" || req.Title == "" {
		return apperrors.ValidationError("email and title are required")
	}

	n, err := s.backend.Publish(req.Email, req.Notification)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Notification sent", n)
}
