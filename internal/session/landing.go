package session

import "github.com/saisriabhiramnelluri/hiresphere/internal/domain"

// LandingPath is where a freshly logged-in user of the given role is sent.
// Unknown roles land on the root area.
func LandingPath(role domain.Role) string {
	if !role.Known() {
		return domain.RootPath
	}
	return domain.DashboardPath(role)
}
