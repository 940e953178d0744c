package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/metrics"
	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	apperrors "github.com/saisriabhiramnelluri/hiresphere/internal/platform/errors"
)

const (
	loginFallback    = "Login failed"
	registerFallback = "Registration failed"
)

var errIncompleteLogin = errors.New("login response missing token or user")

// Result is the outcome of a user-initiated Login or Register.
// Message is the server's message when it sent one, else a generic fallback.
type Result struct {
	OK      bool
	Message string
	Kind    apperrors.ErrorType
}

// Store holds the session state. The zero value is not usable; use NewStore.
type Store struct {
	api      domain.AuthAPI
	tokens   domain.TokenStore
	nav      domain.Navigator
	feedback domain.Feedback
	metrics  *metrics.SessionMetrics

	// transitionMu is held across a token store write and the state change
	// that goes with it, so the persisted token and the session never diverge.
	transitionMu sync.Mutex
	// publishMu serializes transitions so listeners see them in order.
	publishMu sync.Mutex

	mu        sync.RWMutex
	state     domain.SessionState
	listeners map[int]func(domain.SessionState)
	nextID    int
}

// NewStore creates a store in the loading state. m may be nil.
func NewStore(api domain.AuthAPI, tokens domain.TokenStore, nav domain.Navigator, feedback domain.Feedback, m *metrics.SessionMetrics) *Store {
	return &Store{
		api:       api,
		tokens:    tokens,
		nav:       nav,
		feedback:  feedback,
		metrics:   m,
		state:     domain.SessionState{Loading: true},
		listeners: make(map[int]func(domain.SessionState)),
	}
}

// State returns a snapshot of the current session.
func (s *Store) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive every new state. Listeners run on the
// goroutine that caused the transition and must not start a transition
// themselves synchronously. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(domain.SessionState)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Bootstrap resolves the persisted token into a session. It is meant to run
// once at process start. Loading is cleared on every exit path.
func (s *Store) Bootstrap(ctx context.Context) {
	defer s.finishLoading()

	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	token, err := s.tokens.Load(ctx)
	if errors.Is(err, domain.ErrNoToken) || (err == nil && token == "") {
		s.metrics.Transition("anonymous")
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to read stored session token", "error", err)
		s.endSession(ctx)
		return
	}

	identity, err := s.api.CurrentUser(ctx)
	if err != nil {
		slog.InfoContext(ctx, "Stored session rejected", "error_type", apperrors.TypeOf(err), "error", err)
		s.endSession(ctx)
		return
	}
	if identity == nil || identity.User == nil {
		slog.WarnContext(ctx, "Identity response carried no user")
		s.endSession(ctx)
		return
	}

	s.publish(func(domain.SessionState) (domain.SessionState, bool) {
		return authenticated(token, identity.User, identity.Profile), true
	})
	s.metrics.Transition("restored")
	slog.InfoContext(ctx, "Session restored", "user_id", identity.User.ID, "role", identity.User.Role)
}

// Login exchanges credentials for a session. On success the token is
// persisted and the user is sent to their role's landing path. On failure
// nothing changes except the feedback message.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	res, err := s.api.Login(ctx, email, password)
	if err == nil && (res == nil || res.Token == "" || res.User == nil) {
		err = apperrors.TransportError("", errIncompleteLogin)
	}
	if err == nil {
		err = s.establish(ctx, res)
	}
	if err != nil {
		s.metrics.Transition("login_failed")
		slog.InfoContext(ctx, "Login failed", "error_type", apperrors.TypeOf(err), "error", err)
		return s.fail(ctx, err, loginFallback)
	}

	s.metrics.Transition("login")
	slog.InfoContext(ctx, "Logged in", "user_id", res.User.ID, "role", res.User.Role)

	s.feedback.Success(ctx, "Login successful")
	s.nav.Navigate(ctx, LandingPath(res.User.Role))
	return Result{OK: true}
}

// Register creates an account. It never authenticates; on success the user
// is sent to the login area.
func (s *Store) Register(ctx context.Context, req domain.RegisterRequest) Result {
	if err := s.api.Register(ctx, req); err != nil {
		slog.InfoContext(ctx, "Registration failed", "error_type", apperrors.TypeOf(err), "error", err)
		return s.fail(ctx, err, registerFallback)
	}

	s.metrics.Transition("register")
	s.feedback.Success(ctx, "Registration successful! Please log in.")
	s.nav.Navigate(ctx, domain.LoginPath)
	return Result{OK: true}
}

// Logout clears the persisted token and the in-memory session, then sends
// the user to the login area. Safe to call repeatedly.
func (s *Store) Logout(ctx context.Context) {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()
	s.endSession(ctx)
}

// establish saves the token and publishes the authenticated session as one
// transition.
func (s *Store) establish(ctx context.Context, res *domain.LoginResult) error {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	if err := s.tokens.Save(ctx, res.Token); err != nil {
		return apperrors.InternalError("", err).WithContext("operation", "save_token")
	}
	s.publish(func(domain.SessionState) (domain.SessionState, bool) {
		return authenticated(res.Token, res.User, res.Profile), true
	})
	return nil
}

// endSession clears the stored token and the session. Callers hold transitionMu.
func (s *Store) endSession(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to clear stored session token", "error", err)
	}

	s.publish(func(cur domain.SessionState) (domain.SessionState, bool) {
		return domain.SessionState{}, !isCleared(cur)
	})
	s.metrics.Transition("logout")
	s.nav.Navigate(ctx, domain.LoginPath)
}

// UpdateProfile replaces the profile locally. It is ignored without a session.
func (s *Store) UpdateProfile(profile domain.Profile) {
	applied := false
	s.publish(func(cur domain.SessionState) (domain.SessionState, bool) {
		if !cur.Authenticated {
			return cur, false
		}
		applied = true
		cur.Profile = profile.Clone()
		if cur.Profile == nil {
			cur.Profile = domain.Profile{}
		}
		return cur, true
	})
	if !applied {
		slog.Warn("Ignoring profile update without an authenticated session")
	}
}

func (s *Store) fail(ctx context.Context, err error, fallback string) Result {
	msg := apperrors.MessageOf(err, fallback)
	s.feedback.Failure(ctx, msg)
	return Result{OK: false, Message: msg, Kind: apperrors.TypeOf(err)}
}

func (s *Store) finishLoading() {
	s.publish(func(cur domain.SessionState) (domain.SessionState, bool) {
		if !cur.Loading {
			return cur, false
		}
		cur.Loading = false
		return cur, true
	})
}

// publish applies next to a copy of the current state. When next reports a
// change, the copy becomes the state and listeners are called without mu held.
func (s *Store) publish(next func(domain.SessionState) (domain.SessionState, bool)) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	state, changed := next(s.state.Clone())
	if !changed {
		s.mu.Unlock()
		return
	}
	s.state = state
	listeners := make([]func(domain.SessionState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state.Clone())
	}
}

func authenticated(token string, user *domain.User, profile domain.Profile) domain.SessionState {
	u := *user
	p := profile.Clone()
	if p == nil {
		p = domain.Profile{}
	}
	return domain.SessionState{
		Token:         token,
		User:          &u,
		Profile:       p,
		Authenticated: true,
	}
}

func isCleared(st domain.SessionState) bool {
	return st.Token == "" && st.User == nil && st.Profile == nil && !st.Authenticated && !st.Loading
}
