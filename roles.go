package credentials

import "strings"

// Role is the authorization role attached to a user.
type Role string

const (
	// RoleStandard is assigned at registration.
	RoleStandard Role = "user"
	// RoleModerator can act on content owned by others.
	RoleModerator Role = "moderator"
	// RoleAdmin has full access.
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleStandard, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast reports whether r ranks at or above min.
func (r Role) IsAtLeast(min Role) bool {
	return r.rank() >= min.rank()
}

func (r Role) rank() int {
	switch r {
	case RoleStandard:
		return 1
	case RoleModerator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole maps s to a Role. Unknown values yield RoleStandard and false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return RoleStandard, false
	}
	return r, true
}
