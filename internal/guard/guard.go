// Package guard decides whether a session may enter a protected area.
//
// The decision has two independent stages. Authenticate checks that the
// session is resolved and logged in; Authorize checks the role against an
// allow-list. Check runs them in that order.
package guard

import (
	"slices"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
)

type Kind int

const (
	Allow Kind = iota
	// Pending means identity resolution is still running; render a placeholder.
	Pending
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict. Path is set only for Redirect.
type Decision struct {
	Kind Kind
	Path string
}

func (d Decision) String() string {
	if d.Kind == Redirect {
		return "redirect " + d.Path
	}
	return d.Kind.String()
}

func allow() Decision               { return Decision{Kind: Allow} }
func redirect(path string) Decision { return Decision{Kind: Redirect, Path: path} }

// Authenticate is the first stage: loading sessions are pending and
// anonymous sessions go to the login area.
func Authenticate(st domain.SessionState) Decision {
	if st.Loading {
		return Decision{Kind: Pending}
	}
	if !st.Authenticated {
		return redirect(domain.LoginPath)
	}
	return allow()
}

// Authorize is the second stage. It does not look at Authenticated, only at
// the user: no user goes to the login area, a role outside allowed goes to
// that role's own dashboard. An empty allowed list admits any role.
func Authorize(st domain.SessionState, allowed []domain.Role) Decision {
	if st.User == nil {
		return redirect(domain.LoginPath)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, st.User.Role) {
		return redirect(domain.DashboardPath(st.User.Role))
	}
	return allow()
}

// Check runs Authenticate and then Authorize.
func Check(st domain.SessionState, allowed []domain.Role) Decision {
	if d := Authenticate(st); d.Kind != Allow {
		return d
	}
	return Authorize(st, allowed)
}
