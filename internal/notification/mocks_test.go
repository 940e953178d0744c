package notification

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
)

// --- Mock implementations ---

type mockNotificationAPI struct {
	listCalls atomic.Int32

	listFn       func(ctx context.Context, limit int) (*domain.NotificationPage, error)
	markAsReadFn func(ctx context.Context, id string) error
	markAllFn    func(ctx context.Context) error
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockNotificationAPI) ListNotifications(ctx context.Context, limit int) (*domain.NotificationPage, error) {
	m.listCalls.Add(1)
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockNotificationAPI) MarkAsRead(ctx context.Context, id string) error {
	if m.markAsReadFn != nil {
		return m.markAsReadFn(ctx, id)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockNotificationAPI) MarkAllAsRead(ctx context.Context) error {
	if m.markAllFn != nil {
		return m.markAllFn(ctx)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockNotificationAPI) DeleteNotification(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockNotificationAPI) ListCalls() int { return int(m.listCalls.Load()) }

// gate blocks ListNotifications until released.
type gate struct {
	once    sync.Once
	release chan struct{}
}

func newGate() *gate { return &gate{release: make(chan struct{})} }

func (g *gate) Open() { g.once.Do(func() { close(g.release) }) }

func (g *gate) Wait(ctx context.Context) error {
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func samplePage() *domain.NotificationPage {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.NotificationPage{
		Notifications: []domain.Notification{
			{ID: "n3", Type: domain.NotificationInterviewScheduled, Title: "Interview", Priority: domain.PriorityHigh, CreatedAt: base.Add(2 * time.Hour)},
			{ID: "n2", Type: domain.NotificationApplicationStatus, Title: "Shortlisted", Priority: domain.PriorityMedium, CreatedAt: base.Add(time.Hour)},
			{ID: "n1", Type: domain.NotificationJobPosted, Title: "New job", Priority: domain.PriorityLow, IsRead: true, CreatedAt: base},
		},
		UnreadCount: 5,
	}
}

func authState(token string) domain.SessionState {
	return domain.SessionState{
		Token:         token,
		User:          &domain.User{ID: "u1", Role: domain.RoleStudent},
		Profile:       domain.Profile{},
		Authenticated: true,
	}
}
