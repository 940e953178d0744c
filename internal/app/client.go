package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/saisriabhiramnelluri/hiresphere/internal/notification"
	"github.com/saisriabhiramnelluri/hiresphere/internal/session"
)

// Client is the process-wide context object handed to every consumer.
type Client struct {
	Session       *session.Store
	Notifications *notification.Sync

	initOnce     sync.Once
	teardownOnce sync.Once

	mu          sync.Mutex
	unsubscribe func()
}

func NewClient(sess *session.Store, notifications *notification.Sync) *Client {
	return &Client{
		Session:       sess,
		Notifications: notifications,
	}
}

// Init subscribes notification polling to session changes and resolves the
// persisted session. Polling starts as soon as the session is authenticated.
// Only the first call has an effect.
func (c *Client) Init(ctx context.Context) {
	c.initOnce.Do(func() {
		unsubscribe := c.Session.Subscribe(c.Notifications.OnSessionChange)
		c.mu.Lock()
		c.unsubscribe = unsubscribe
		c.mu.Unlock()

		c.Session.Bootstrap(ctx)

		st := c.Session.State()
		slog.InfoContext(ctx, "Client initialized", "authenticated", st.Authenticated, "role", st.Role())
	})
}

// Resolve only resolves the persisted session, without starting polling.
// One-shot commands use it instead of Init.
func (c *Client) Resolve(ctx context.Context) domain.SessionState {
	c.initOnce.Do(func() {
		c.Session.Bootstrap(ctx)
	})
	return c.Session.State()
}

// Teardown stops polling and detaches from the session. Safe to call more
// than once and without a prior Init.
func (c *Client) Teardown() {
	c.teardownOnce.Do(func() {
		c.mu.Lock()
		unsubscribe := c.unsubscribe
		c.unsubscribe = nil
		c.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		c.Notifications.Close()
		slog.Debug("Client torn down")
	})
}
