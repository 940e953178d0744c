package domain

import (
	"context"
	"encoding/json"
)

// Envelope wraps every remote API response. A response with Success=false
// always carries Message.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Identity is the answer to "who does the stored token belong to".
type Identity struct {
	User    *User   `json:"user"`
	Profile Profile `json:"profile"`
}

// LoginResult is what a successful login returns.
type LoginResult struct {
	Token   string  `json:"token"`
	User    *User   `json:"user"`
	Profile Profile `json:"profile"`
}

// AuthAPI is the identity side of the remote API. Implementations never panic
// on a rejected request; they return a structured error carrying the server's message.
type AuthAPI interface {
	CurrentUser(ctx context.Context) (*Identity, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) error
}

// NotificationAPI is the notification side of the remote API.
type NotificationAPI interface {
	ListNotifications(ctx context.Context, limit int) (*NotificationPage, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
}
