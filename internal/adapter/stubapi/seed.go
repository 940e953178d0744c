package stubapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

// SeedAccounts are created by Seed, one per role.
var SeedAccounts = []domain.RegisterRequest{
	{
		Name:    "Platform Admin",
		Email:   "admin@hiresphere.dev",
		Role:    domain.RoleAdmin,
		Details: map[string]any{"permissions": []any{"manage_users", "manage_jobs"}},
	},
	{
		Name:    "Sam Student",
		Email:   "student@hiresphere.dev",
		Role:    domain.RoleStudent,
		Details: map[string]any{"university": "State University", "graduationYear": float64(2027)},
	},
	{
		Name:    "Riley Recruiter",
		Email:   "recruiter@hiresphere.dev",
		Role:    domain.RoleRecruiter,
		Details: map[string]any{"companyName": "Acme Corp", "isApproved": true},
	},
}

var seedNotifications = map[domain.Role][]domain.Notification{
	domain.RoleAdmin: {
		{Type: domain.NotificationSystem, Title: "Recruiter awaiting approval", Message: "Acme Corp requested recruiter access.", Priority: domain.PriorityHigh, ActionURL: "/admin/recruiters"},
		{Type: domain.NotificationJobPosted, Title: "New job posted", Message: "Backend Engineer at Acme Corp.", Priority: domain.PriorityLow},
	},
	domain.RoleStudent: {
		{Type: domain.NotificationJobPosted, Title: "New job matches your profile", Message: "Backend Engineer at Acme Corp.", Priority: domain.PriorityMedium},
		{Type: domain.NotificationApplicationStatus, Title: "Application shortlisted", Message: "Your application to Acme Corp was shortlisted.", Priority: domain.PriorityHigh},
		{Type: domain.NotificationInterviewScheduled, Title: "Interview scheduled", Message: "Technical interview with Acme Corp.", Priority: domain.PriorityHigh},
	},
	domain.RoleRecruiter: {
		{Type: domain.NotificationNewApplication, Title: "New application", Message: "Sam Student applied to Backend Engineer.", Priority: domain.PriorityMedium},
	},
}

// Seed registers SeedAccounts and fills their inboxes. It is meant for a
// fresh backend; an already registered account is an error.
func Seed(ctx context.Context, b *Backend) error {
	for _, req := range SeedAccounts {
		req.Password = SeedPassword
		if err := b.Register(ctx, req); err != nil {
			return fmt.Errorf("seed %s: %w", req.Email, err)
		}
		for _, n := range seedNotifications[req.Role] {
			if _, err := b.Publish(req.Email, n); err != nil {
				return fmt.Errorf("seed notification for %s: %w", req.Email, err)
			}
		}
	}
	return nil
}

// RunFeed publishes a system notification to every account each interval
// until ctx is done, so pollers have something to pick up.
func RunFeed(ctx context.Context, b *Backend, clock clockwork.Clock, interval time.Duration) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for seq := 1; ; seq++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			for _, email := range b.Emails() {
				n := domain.Notification{
					Type:     domain.NotificationSystem,
					Title:    fmt.Sprintf("Platform update #%d", seq),
					Message:  "Something changed on HireSphere.",
					Priority: domain.PriorityLow,
				}
				if _, err := b.Publish(email, n); err != nil {
					slog.Warn("Feed publish failed", "email", email, "error", err)
				}
			}
			slog.Debug("Feed published", "seq", seq)
		}
	}
}
