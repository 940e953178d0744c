package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
)

// --- Mock implementations ---

type mockAuthAPI struct {
	mu    sync.Mutex
	calls int

	currentUserFn func(ctx context.Context) (*domain.Identity, error)
	loginFn       func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	registerFn    func(ctx context.Context, req domain.RegisterRequest) error
}

func (m *mockAuthAPI) record() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockAuthAPI) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockAuthAPI) CurrentUser(ctx context.Context) (*domain.Identity, error) {
	m.record()
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAuthAPI) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	m.record()
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAuthAPI) Register(ctx context.Context, req domain.RegisterRequest) error {
	m.record()
	if m.registerFn != nil {
		return m.registerFn(ctx, req)
	}
	return fmt.Errorf("not implemented")
}

type memTokenStore struct {
	mu      sync.Mutex
	token   string
	loadErr error
	saveErr error
	clears  int
	// onSave runs after a successful Save, without mu held.
	onSave func()
}

func (m *memTokenStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if m.token == "" {
		return "", domain.ErrNoToken
	}
	return m.token, nil
}

func (m *memTokenStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	if m.saveErr != nil {
		m.mu.Unlock()
		return m.saveErr
	}
	m.token = token
	onSave := m.onSave
	m.mu.Unlock()

	if onSave != nil {
		onSave()
	}
	return nil
}

func (m *memTokenStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.token = ""
	return nil
}

func (m *memTokenStore) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(_ context.Context, path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type recordingFeedback struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (f *recordingFeedback) Success(_ context.Context, msg string) {
	f.mu.Lock()
	f.successes = append(f.successes, msg)
	f.mu.Unlock()
}

func (f *recordingFeedback) Failure(_ context.Context, msg string) {
	f.mu.Lock()
	f.failures = append(f.failures, msg)
	f.mu.Unlock()
}
