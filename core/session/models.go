package session

// Portal roles, as presented by the token's scope claim.
const (
	RoleAdmin      = "ADMIN"
	RoleInstructor = "INSTRUCTOR"
	RoleStudent    = "STUDENT"
)

var (
	// rolePriority is the fixed resolution order: a user holding several roles
	// is treated as the first matching entry everywhere in the portal.
	rolePriority = []string{RoleAdmin, RoleInstructor, RoleStudent}

	AllRoles = []string{RoleAdmin, RoleInstructor, RoleStudent}
)

// KnownRole reports whether role is one of the portal roles.
func KnownRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// HighestRole resolves the single effective role from a role set.
// ok is false when none of the roles is recognized.
func HighestRole(roles []string) (role string, ok bool) {
	for _, r := range rolePriority {
		for _, held := range roles {
			if held == r {
				return r, true
			}
		}
	}
	return "", false
}

// Identity is the decoded-token identity of the current user.
// Highest is derived from Roles on every derivation; it is never set independently.
type Identity struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
	Highest string   `json:"highest_role,omitempty"`
}

func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (id Identity) IsAdmin() bool      { return id.Highest == RoleAdmin }
func (id Identity) IsInstructor() bool { return id.Highest == RoleInstructor }
func (id Identity) IsStudent() bool    { return id.Highest == RoleStudent }
