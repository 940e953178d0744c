package stubapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/correlation"
	apperrors "github.com/saisriabhiramnelluri/hiresphere/internal/platform/errors"
	"golang.org/x/time/rate"
)

const (
	ctxKeyUser        = "user"
	ctxKeyIdentity    = "identity"
	rateLimiterExpiry = 5 * time.Minute
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	if err := c.JSON(status, envelope{Success: true, Message: message, Data: data}); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// correlationMiddleware adopts the caller's request ID, or mints one, and
// echoes it back.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(correlation.Header)
		if id == "" {
			id = correlation.NewID()
		}
		c.Response().Header().Set(correlation.Header, id)
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func requestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

// envelopeMiddleware turns handler errors into {success:false, message}
// responses with the status matching the error type.
func envelopeMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var structuredErr *apperrors.Error
			var httpErr *echo.HTTPError
			switch {
			case errors.As(err, &structuredErr):
			case errors.As(err, &httpErr):
				structuredErr = wrapHTTPError(httpErr)
			default:
				structuredErr = apperrors.InternalError("Server error", err)
			}

			status := statusOf(structuredErr)
			logError(c, structuredErr, status)

			if err := c.JSON(status, envelope{Success: false, Message: messageOf(structuredErr)}); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

// statusOf prefers an explicitly set status over the type default.
func statusOf(err *apperrors.Error) int {
	if err.Status != 0 {
		return err.Status
	}
	return err.HTTPStatus()
}

func messageOf(err *apperrors.Error) string {
	if err.Message != "" {
		return err.Message
	}
	return http.StatusText(statusOf(err))
}

func logError(c echo.Context, err *apperrors.Error, status int) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", status,
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if user, ok := c.Get(ctxKeyUser).(*domain.User); ok {
		attrs = append(attrs, "user_id", user.ID)
	}

	ctx := c.Request().Context()
	switch err.Type {
	case apperrors.TypeValidation, apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Request rejected", attrs...)
	case apperrors.TypeInvalidCredential, apperrors.TypeStaleToken:
		slog.WarnContext(ctx, "Unauthorized", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Internal error", attrs...)
	}
}

func wrapHTTPError(httpErr *echo.HTTPError) *apperrors.Error {
	message, _ := httpErr.Message.(string)

	var err *apperrors.Error
	switch httpErr.Code {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusUnsupportedMediaType:
		err = apperrors.ValidationError(message)
	case http.StatusNotFound:
		err = apperrors.NotFoundError(message)
	case http.StatusUnauthorized:
		err = apperrors.StaleTokenError(message)
	default:
		err = apperrors.InternalError(message, httpErr.Internal)
	}
	return err.WithStatus(httpErr.Code)
}

// requireAuth resolves the bearer token and stores the caller under ctxKeyUser.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return apperrors.StaleTokenError("Not authorized, no token")
		}

		id, err := s.backend.Identify(c.Request().Context(), strings.TrimSpace(token))
		if err != nil {
			return err
		}
		c.Set(ctxKeyUser, id.User)
		c.Set(ctxKeyIdentity, id)
		return next(c)
	}
}

func requireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := currentUser(c)
			for _, r := range roles {
				if user.Role == r {
					return next(c)
				}
			}
			return apperrors.StaleTokenError(fmt.Sprintf("Role %s is not authorized for this route", user.Role)).
				WithStatus(http.StatusForbidden)
		}
	}
}

func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get(ctxKeyUser).(*domain.User)
	if user == nil {
		return &domain.User{}
	}
	return user
}

func newLoginRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, envelope{
				Success: false,
				Message: "Too many login attempts, please try again later",
			})
		},
	})
}
