package app

import (
	"time"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
)

// Snapshot is a point-in-time view of the client for diagnostics. It never
// carries the session token.
type Snapshot struct {
	Session       SessionSnapshot      `json:"session"`
	Notifications NotificationSnapshot `json:"notifications"`
}

type SessionSnapshot struct {
	Authenticated bool         `json:"authenticated"`
	Loading       bool         `json:"loading"`
	User          *domain.User `json:"user,omitempty"`
}

type NotificationSnapshot struct {
	Polling     bool       `json:"polling"`
	Loading     bool       `json:"loading"`
	UnreadCount int        `json:"unreadCount"`
	Items       int        `json:"items"`
	LastSynced  *time.Time `json:"lastSynced,omitempty"`
}

// Snapshot captures the current session and notification state.
func (c *Client) Snapshot() Snapshot {
	sess := c.Session.State()
	notes := c.Notifications.State()

	snap := Snapshot{
		Session: SessionSnapshot{
			Authenticated: sess.Authenticated,
			Loading:       sess.Loading,
			User:          sess.User,
		},
		Notifications: NotificationSnapshot{
			Polling:     c.Notifications.Polling(),
			Loading:     notes.Loading,
			UnreadCount: notes.UnreadCount,
			Items:       len(notes.Items),
		},
	}
	if !notes.LastSynced.IsZero() {
		synced := notes.LastSynced
		snap.Notifications.LastSynced = &synced
	}
	return snap
}
