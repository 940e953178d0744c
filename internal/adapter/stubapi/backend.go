package stubapi

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	apperrors "github.com/saisriabhiramnelluri/hiresphere/internal/platform/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	minPasswordLen   = 6
)

type account struct {
	user    domain.User
	hash    []byte
	profile domain.Profile
}

// Backend is the in-memory state behind the stub API: accounts, issued
// tokens and per-user notification inboxes. Safe for concurrent use.
type Backend struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	cost    int
	byEmail map[string]*account
	byID    map[string]*account
	tokens  map[string]string                 // token -> user ID
	inbox   map[string][]*domain.Notification // user ID -> notifications, oldest first
}

// NewBackend creates an empty backend. cost is the bcrypt cost; values
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewBackend(clock clockwork.Clock, cost int) *Backend {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Backend{
		clock:   clock,
		cost:    cost,
		byEmail: make(map[string]*account),
		byID:    make(map[string]*account),
		tokens:  make(map[string]string),
		inbox:   make(map[string][]*domain.Notification),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Role-specific fields in req.Details become
// the account's profile.
func (b *Backend) Register(_ context.Context, req domain.RegisterRequest) error {
	email := normalizeEmail(req.Email)
	switch {
	case strings.TrimSpace(req.Name) == "":
		return apperrors.ValidationError("Name is required")
	case email == "" || !strings.Contains(email, "@"):
		return apperrors.ValidationError("A valid email is required")
	case len(req.Password) < minPasswordLen:
		return apperrors.ValidationError(fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	case !req.Role.Known():
		return apperrors.ValidationError("Invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), b.cost)
	if err != nil {
		return apperrors.InternalError("hash password", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byEmail[email]; exists {
		return apperrors.ValidationError("User already exists")
	}

	acc := &account{
		user: domain.User{
			ID:    uuid.NewString(),
			Role:  req.Role,
			Email: email,
			Name:  strings.TrimSpace(req.Name),
		},
		hash:    hash,
		profile: domain.Profile(req.Details).Clone(),
	}
	if acc.profile == nil {
		acc.profile = domain.Profile{}
	}
	b.byEmail[email] = acc
	b.byID[acc.user.ID] = acc
	return nil
}

// Login checks the password and issues a fresh opaque token.
func (b *Backend) Login(_ context.Context, email, password string) (*domain.LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.ValidationError("Email and password are required")
	}

	b.mu.RLock()
	acc, ok := b.byEmail[normalizeEmail(email)]
	b.mu.RUnlock()
	if !ok {
		return nil, apperrors.InvalidCredentialError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return nil, apperrors.InvalidCredentialError("Invalid credentials")
	}

	token := uuid.NewString()
	b.mu.Lock()
	b.tokens[token] = acc.user.ID
	b.mu.Unlock()

	user := acc.user
	return &domain.LoginResult{Token: token, User: &user, Profile: acc.profile.Clone()}, nil
}

// Identify resolves a bearer token to its account.
func (b *Backend) Identify(_ context.Context, token string) (*domain.Identity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	id, ok := b.tokens[token]
	if !ok {
		return nil, apperrors.StaleTokenError("Not authorized, token failed")
	}
	acc, ok := b.byID[id]
	if !ok {
		return nil, apperrors.StaleTokenError("User not found")
	}
	user := acc.user
	return &domain.Identity{User: &user, Profile: acc.profile.Clone()}, nil
}

// Revoke forgets a token; later requests carrying it are rejected as stale.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	delete(b.tokens, token)
	b.mu.Unlock()
}

// List returns up to limit notifications for userID, most recent first, and
// the unread count across the whole inbox.
func (b *Backend) List(_ context.Context, userID string, limit int) (*domain.NotificationPage, error) {
	if limit < 1 {
		return nil, apperrors.ValidationError("limit must be a positive integer")
	}
	limit = min(limit, MaxListLimit)

	b.mu.RLock()
	defer b.mu.RUnlock()

	inbox := b.inbox[userID]
	page := &domain.NotificationPage{Notifications: make([]domain.Notification, 0, min(limit, len(inbox)))}
	for i := len(inbox) - 1; i >= 0; i-- {
		if !inbox[i].IsRead {
			page.UnreadCount++
		}
		if len(page.Notifications) < limit {
			page.Notifications = append(page.Notifications, *inbox[i])
		}
	}
	return page, nil
}

func (b *Backend) MarkRead(_ context.Context, userID, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.find(userID, id)
	if n == nil {
		return apperrors.NotFoundError("Notification not found")
	}
	n.IsRead = true
	return nil
}

func (b *Backend) MarkAllRead(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, n := range b.inbox[userID] {
		n.IsRead = true
	}
	return nil
}

func (b *Backend) Delete(_ context.Context, userID, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	inbox := b.inbox[userID]
	i := slices.IndexFunc(inbox, func(n *domain.Notification) bool { return n.ID == id })
	if i < 0 {
		return apperrors.NotFoundError("Notification not found")
	}
	b.inbox[userID] = slices.Delete(inbox, i, i+1)
	return nil
}

func (b *Backend) find(userID, id string) *domain.Notification {
	for _, n := range b.inbox[userID] {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Publish delivers n to the account registered under email. ID and
// CreatedAt are assigned when empty; the stored copy is returned.
func (b *Backend) Publish(email string, n domain.Notification) (domain.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.byEmail[normalizeEmail(email)]
	if !ok {
		return domain.Notification{}, apperrors.NotFoundError("User not found").WithContext("email", email)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = b.clock.Now().UTC()
	}
	n.Priority = cmp.Or(n.Priority, domain.PriorityMedium)
	n.Type = cmp.Or(n.Type, domain.NotificationSystem)

	stored := n
	b.inbox[acc.user.ID] = append(b.inbox[acc.user.ID], &stored)
	return stored, nil
}

// Emails lists the registered accounts, sorted.
func (b *Backend) Emails() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.byEmail))
	for email := range b.byEmail {
		out = append(out, email)
	}
	slices.Sort(out)
	return out
}
