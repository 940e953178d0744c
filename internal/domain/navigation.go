package domain

import "context"

const (
	LoginPath = "/login"
	RootPath  = "/"
)

// DashboardPath returns the dashboard area of a role.
func DashboardPath(role Role) string {
	return "/" + string(role) + "/dashboard"
}

// Navigator moves the user-facing layer to another area.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// Feedback surfaces short user-facing messages (toasts, CLI lines).
type Feedback interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string)
}
