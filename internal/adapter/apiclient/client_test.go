package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/correlation"
	apperrors "github.com/saisriabhiramnelluri/hiresphere/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTokens struct {
	mu    sync.Mutex
	token string
}

func (m *memTokens) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", domain.ErrNoToken
	}
	return m.token, nil
}

func (m *memTokens) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokens) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	body := map[string]any{"success": success}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens domain.TokenStore, mutate ...func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := Options{
		BaseURL:         srv.URL,
		RateLimit:       1000,
		RateBurst:       1000,
		MaxRetries:      3,
		RetryBackoff:    time.Millisecond,
		BreakerFailures: 100,
	}
	for _, fn := range mutate {
		fn(&opts)
	}

	c, err := New(opts, tokens)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsInvalidBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	var got http.Header
	var body map[string]string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		got = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"token":   "tok-1",
			"user":    map[string]any{"id": "u1", "role": "student", "email": "s@x.dev"},
			"profile": map[string]any{"university": "MIT"},
		})
	}, &memTokens{})

	res, err := c.Login(context.Background(), "s@x.dev", "secret")

	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, domain.RoleStudent, res.User.Role)
	assert.Equal(t, "MIT", res.Profile["university"])

	assert.Equal(t, map[string]string{"email": "s@x.dev", "password": "secret"}, body)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(got.Get("User-Agent"), "hiresphere-client/"))
	assert.NotEmpty(t, got.Get(correlation.Header))
	assert.Empty(t, got.Get("Authorization"), "no token stored, no bearer header")
}

func TestLogin_InvalidCredential(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "Invalid password", nil)
	}, &memTokens{})

	_, err := c.Login(context.Background(), "s@x.dev", "wrong")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeInvalidCredential))
	assert.Equal(t, "Invalid password", apperrors.MessageOf(err, "Login failed"))
	assert.Equal(t, http.StatusUnauthorized, apperrors.AsStructuredError(err).Status)
}

func TestCurrentUser_SendsBearerAndCorrelation(t *testing.T) {
	var auth, requestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get(correlation.Header)
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"user":    map[string]any{"id": "u1", "role": "admin", "email": "a@x.dev"},
			"profile": map[string]any{},
		})
	}, &memTokens{token: "tok-1"})

	ctx := correlation.WithID(context.Background(), "abc12345")
	id, err := c.CurrentUser(ctx)

	require.NoError(t, err)
	require.NotNil(t, id.User)
	assert.Equal(t, domain.RoleAdmin, id.User.Role)
	assert.Equal(t, "Bearer tok-1", auth)
	assert.Equal(t, "abc12345", requestID)
}

func TestCurrentUser_RejectedTokenIsStale(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, status, false, "Token expired", nil)
		}, &memTokens{token: "old"})

		_, err := c.CurrentUser(context.Background())

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.TypeStaleToken), "status %d", status)
	}
}

func TestCurrentUser_RetriesTransportFailures(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"user": map[string]any{"id": "u1", "role": "recruiter", "email": "r@x.dev"},
		})
	}, &memTokens{token: "tok"})

	id, err := c.CurrentUser(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.RoleRecruiter, id.User.Role)
	assert.Equal(t, int32(3), hits.Load())
}

func TestListNotifications_GivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, &memTokens{token: "tok"})

	_, err := c.ListNotifications(context.Background(), 20)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeTransport))
	assert.Equal(t, int32(3), hits.Load())
}

func TestListNotifications_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeEnvelope(w, http.StatusBadRequest, false, "limit must be positive", nil)
	}, &memTokens{token: "tok"})

	_, err := c.ListNotifications(context.Background(), -1)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))
	assert.Equal(t, "limit must be positive", apperrors.MessageOf(err, ""))
	assert.Equal(t, int32(1), hits.Load())
}

func TestListNotifications_DecodesPage(t *testing.T) {
	var limit string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("limit")
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"notifications": []map[string]any{
				{"id": "n1", "title": "Interview", "isRead": false, "priority": "high", "createdAt": "2026-10-01T10:00:00Z"},
			},
			"unreadCount": 4,
		})
	}, &memTokens{token: "tok"})

	page, err := c.ListNotifications(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, "5", limit)
	assert.Equal(t, 4, page.UnreadCount)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, "Interview", page.Notifications[0].Title)
	assert.False(t, page.Notifications[0].IsRead)
}

func TestListNotifications_MissingListBecomesEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{"unreadCount": 0})
	}, &memTokens{token: "tok"})

	page, err := c.ListNotifications(context.Background(), 20)

	require.NoError(t, err)
	assert.NotNil(t, page.Notifications)
	assert.Empty(t, page.Notifications)
}

func TestMutations_AreNotRetried(t *testing.T) {
	var hits atomic.Int32
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusServiceUnavailable)
	}, &memTokens{token: "tok"})

	err := c.MarkAsRead(context.Background(), "n1")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeTransport))
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/api/notifications/n1/read", path)
}

func TestMutationRoutes(t *testing.T) {
	tests := []struct {
		name   string
		call   func(*Client) error
		method string
		path   string
	}{
		{"mark all read", func(c *Client) error { return c.MarkAllAsRead(context.Background()) }, http.MethodPut, "/api/notifications/read-all"},
		{"delete", func(c *Client) error { return c.DeleteNotification(context.Background(), "n7") }, http.MethodDelete, "/api/notifications/n7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var method, path string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				method, path = r.Method, r.URL.Path
				writeEnvelope(w, http.StatusOK, true, "", nil)
			}, &memTokens{token: "tok"})

			require.NoError(t, tt.call(c))
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.path, path)
		})
	}
}

func TestDeleteNotification_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusNotFound, false, "Notification not found", nil)
	}, &memTokens{token: "tok"})

	err := c.DeleteNotification(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeNotFound))
	assert.Equal(t, "Notification not found", apperrors.MessageOf(err, ""))
}

func TestRegister_FlattensDetails(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		writeEnvelope(w, http.StatusCreated, true, "Registered", map[string]any{})
	}, &memTokens{})

	err := c.Register(context.Background(), domain.RegisterRequest{
		Name:     "Rita",
		Email:    "r@x.dev",
		Password: "secret",
		Role:     domain.RoleRecruiter,
		Details:  map[string]any{"companyName": "Acme"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Rita", body["name"])
	assert.Equal(t, "recruiter", body["role"])
	assert.Equal(t, "Acme", body["companyName"])
	assert.NotContains(t, body, "details")
}

func TestRegister_UnsuccessfulEnvelopeIsValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, false, "Email already registered", nil)
	}, &memTokens{})

	err := c.Register(context.Background(), domain.RegisterRequest{Email: "dup@x.dev", Role: domain.RoleStudent})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))
	assert.Equal(t, "Email already registered", apperrors.MessageOf(err, "Registration failed"))
}

func TestMalformedSuccessBodyIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}, &memTokens{token: "tok"}, func(o *Options) { o.MaxRetries = 1 })

	_, err := c.CurrentUser(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeTransport))
	assert.Empty(t, apperrors.MessageOf(err, ""))
}

func TestBreaker_OpensAfterConsecutiveTransportFailures(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, &memTokens{token: "tok"}, func(o *Options) {
		o.BreakerFailures = 5
		o.BreakerTimeout = time.Minute
	})

	require.NoError(t, c.Ready(context.Background()))

	for range 5 {
		require.Error(t, c.MarkAllAsRead(context.Background()))
	}

	err := c.MarkAllAsRead(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeTransport))
	assert.Equal(t, int32(5), hits.Load(), "open breaker must short-circuit")
	assert.Error(t, c.Ready(context.Background()))
}

func TestBreaker_IgnoresServerRejections(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusNotFound, false, "Notification not found", nil)
	}, &memTokens{token: "tok"}, func(o *Options) { o.BreakerFailures = 2 })

	for range 5 {
		err := c.DeleteNotification(context.Background(), "x")
		require.True(t, apperrors.IsType(err, apperrors.TypeNotFound))
	}
	assert.NoError(t, c.Ready(context.Background()))
}

func TestCanceledContextStopsRetries(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, &memTokens{token: "tok"}, func(o *Options) { o.RetryBackoff = time.Hour })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		assert.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
		cancel()
	}()

	_, err := c.ListNotifications(ctx, 20)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(1), hits.Load())
}
