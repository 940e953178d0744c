package domain

import "context"

// SessionState is the client's view of "is there a valid session, and as whom".
//
// Invariant: Authenticated == (User != nil && Token != ""). Profile is non-nil
// only while authenticated. Loading is true only while the startup identity
// resolution is in flight.
type SessionState struct {
	Token         string
	User          *User
	Profile       Profile
	Authenticated bool
	Loading       bool
}

// Role returns the authenticated user's role, or "" when there is no user.
func (s SessionState) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Consistent reports whether the authentication invariant holds.
func (s SessionState) Consistent() bool {
	populated := s.User != nil && s.Token != ""
	if s.Authenticated != populated {
		return false
	}
	return s.Authenticated || s.Profile == nil
}

// Clone returns a deep enough copy that callers cannot mutate the owner's state.
func (s SessionState) Clone() SessionState {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.Profile = s.Profile.Clone()
	return out
}

// TokenStore persists the opaque session token across process restarts.
// Load returns ErrNoToken when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
