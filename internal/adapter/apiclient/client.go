// Package apiclient talks to the HireSphere REST API. Every call is rate
// limited and passes through a circuit breaker; idempotent reads are retried
// on transport failures. Responses are decoded from the {success, message,
// data} envelope and failures come back as *apperrors.Error values.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/metrics"
	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/correlation"
	apperrors "github.com/saisriabhiramnelluri/hiresphere/internal/platform/errors"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/retry"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/version"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 1 << 20

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	RateBurst  int
	MaxRetries int // attempts for GET requests
	// RetryBackoff is the first wait between GET attempts; it doubles up to 2s.
	RetryBackoff time.Duration

	// BreakerFailures consecutive transport failures open the breaker for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	Metrics    *metrics.APIMetrics
	HTTPClient *http.Client
	Clock      clockwork.Clock
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 10
	}
	if o.RateBurst < 1 {
		o.RateBurst = 20
	}
	if o.MaxRetries < 1 {
		o.MaxRetries = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 200 * time.Millisecond
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 30 * time.Second
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
}

// Client implements domain.AuthAPI and domain.NotificationAPI over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  domain.TokenStore
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	retry   retry.Policy
	metrics *metrics.APIMetrics
}

var (
	_ domain.AuthAPI         = (*Client)(nil)
	_ domain.NotificationAPI = (*Client)(nil)
)

// New creates a client for opts.BaseURL. The bearer token is read from
// tokens on every request, so a login or logout takes effect immediately.
func New(opts Options, tokens domain.TokenStore) (*Client, error) {
	opts.setDefaults()

	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", opts.BaseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    opts.HTTPClient,
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		metrics: opts.Metrics,
	}

	c.retry = retry.Policy{
		MaxAttempts:      opts.MaxRetries,
		InitialBackoff:   opts.RetryBackoff,
		MaxBackoff:       2 * time.Second,
		RateLimitBackoff: time.Second,
		Clock:            opts.Clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Debug("Retrying API request", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}

	failures := opts.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "hiresphere-api",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || !apperrors.IsType(err, apperrors.TypeTransport)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			c.metrics.SetBreakerState(breakerGauge(to), to.String())
		},
	})

	return c, nil
}

func breakerGauge(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	default:
		return metrics.BreakerClosed
	}
}

// Ready reports an error while the circuit breaker is open.
func (c *Client) Ready(context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return errors.New("API circuit breaker is open")
	}
	return nil
}

// call performs one API operation and decodes the envelope's data into out
// (which may be nil). GET requests are retried on transport failures;
// mutations never are.
func (c *Client) call(ctx context.Context, operation, method, path string, body, out any) error {
	ctx, _ = correlation.Ensure(ctx)
	start := time.Now()

	var err error
	if method == http.MethodGet {
		_, err = retry.Do(ctx, c.retry, classify, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.attempt(ctx, operation, method, path, body, out)
		})
	} else {
		err = c.attempt(ctx, operation, method, path, body, out)
	}
	err = normalize(err)

	outcome := "ok"
	if err != nil {
		outcome = string(apperrors.TypeOf(err))
		slog.DebugContext(ctx, "API request failed", "operation", operation, "error_type", outcome, "error", err)
	}
	c.metrics.ObserveRequest(operation, outcome, time.Since(start))
	return err
}

func (c *Client) attempt(ctx context.Context, operation, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.TransportError("", err).WithContext("operation", operation)
	}

	res, err := c.breaker.Execute(func() (any, error) {
		return c.send(ctx, operation, method, path, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.TransportError("", err).WithContext("operation", operation)
	}
	if err != nil {
		return err
	}

	data, _ := res.(json.RawMessage)
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.TransportError("", fmt.Errorf("decode %s data: %w", operation, err))
	}
	return nil
}

func (c *Client) send(ctx context.Context, operation, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.InternalError("encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apperrors.InternalError("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id, ok := correlation.ID(ctx); ok {
		req.Header.Set(correlation.Header, id)
	}
	c.authorize(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.TransportError("", err).WithContext("operation", operation)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.TransportError("", fmt.Errorf("read response: %w", err)).WithStatus(resp.StatusCode)
	}

	var env domain.Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil {
			return nil, apperrors.TransportError("", fmt.Errorf("decode envelope: %w", decodeErr)).WithStatus(resp.StatusCode)
		}
		if !env.Success {
			return nil, apperrors.ValidationError(env.Message).WithStatus(resp.StatusCode)
		}
		return env.Data, nil
	}

	message := ""
	if decodeErr == nil {
		message = env.Message
	}
	return nil, statusError(operation, resp.StatusCode, message)
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoToken) {
			slog.WarnContext(ctx, "Sending request without token", "error", err)
		}
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// statusError maps a non-2xx response onto the error taxonomy. A rejected
// credential on login is an invalid credential; anywhere else it means the
// stored token went stale.
func statusError(operation string, status int, message string) *apperrors.Error {
	var err *apperrors.Error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if operation == opLogin {
			err = apperrors.InvalidCredentialError(message)
		} else {
			err = apperrors.StaleTokenError(message)
		}
	case status == http.StatusNotFound:
		err = apperrors.NotFoundError(message)
	case status == http.StatusTooManyRequests:
		err = apperrors.TransportError(message, nil)
	case status >= 400 && status < 500:
		err = apperrors.ValidationError(message)
	default:
		err = apperrors.TransportError(message, nil)
	}
	return err.WithStatus(status).WithContext("operation", operation)
}

// classify decides whether a failed GET is worth another attempt.
func classify(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, gobreaker.ErrOpenState) {
		return retry.Stop
	}
	var structured *apperrors.Error
	if !errors.As(err, &structured) || structured.Type != apperrors.TypeTransport {
		return retry.Stop
	}
	if structured.Status == http.StatusTooManyRequests {
		return retry.After
	}
	return retry.Retry
}

// normalize strips retry wrappers so callers always get the structured error.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	var structured *apperrors.Error
	if errors.As(err, &structured) {
		return structured
	}
	return apperrors.TransportError("", err)
}
