package domain

// Role identifies which area of the platform a user belongs to.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleStudent   Role = "student"
	RoleRecruiter Role = "recruiter"
)

// ParseRole converts a string to a Role. Unknown values are returned unchanged
// with ok=false so callers can still route them to the root area.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleStudent, RoleRecruiter:
		return Role(s), true
	default:
		return Role(s), false
	}
}

func (r Role) String() string { return string(r) }

// Known reports whether r is one of the three platform roles.
func (r Role) Known() bool {
	_, ok := ParseRole(string(r))
	return ok
}

type User struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Profile is the role-specific record attached to a user: resume data for a
// student, company data for a recruiter, metadata for an admin. The shape is
// owned by the server, so it is kept as a generic JSON object.
type Profile map[string]any

// Clone returns a shallow copy so snapshots handed out cannot alias the stored map.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RegisterRequest is the payload for account registration. Details carries
// role-specific fields (company name, university, ...) passed through verbatim.
type RegisterRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Role     Role           `json:"role"`
	Details  map[string]any `json:"details,omitempty"`
}
