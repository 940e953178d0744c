package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
)

const (
	opCurrentUser = "current_user"
	opLogin       = "login"
	opRegister    = "register"
	opList        = "list_notifications"
	opMarkRead    = "mark_read"
	opMarkAllRead = "mark_all_read"
	opDelete      = "delete_notification"
)

func (c *Client) CurrentUser(ctx context.Context) (*domain.Identity, error) {
	var out domain.Identity
	if err := c.call(ctx, opCurrentUser, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out domain.LoginResult
	if err := c.call(ctx, opLogin, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register sends the role-specific details alongside the account fields in
// one flat object.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) error {
	body := make(map[string]any, len(req.Details)+4)
	for k, v := range req.Details {
		body[k] = v
	}
	body["name"] = req.Name
	body["email"] = req.Email
	body["password"] = req.Password
	body["role"] = req.Role
	return c.call(ctx, opRegister, http.MethodPost, "/api/auth/register", body, nil)
}

func (c *Client) ListNotifications(ctx context.Context, limit int) (*domain.NotificationPage, error) {
	path := "/api/notifications?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	var out domain.NotificationPage
	if err := c.call(ctx, opList, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Notifications == nil {
		out.Notifications = []domain.Notification{}
	}
	return &out, nil
}

func (c *Client) MarkAsRead(ctx context.Context, id string) error {
	return c.call(ctx, opMarkRead, http.MethodPut, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (c *Client) MarkAllAsRead(ctx context.Context) error {
	return c.call(ctx, opMarkAllRead, http.MethodPut, "/api/notifications/read-all", nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.call(ctx, opDelete, http.MethodDelete, "/api/notifications/"+url.PathEscape(id), nil, nil)
}
