package domain

import "strings"

// Role is the access tier assigned to every user.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleDeveloper      Role = "developer"
	RoleViewer         Role = "viewer"
)

// DefaultRole is assigned when a registration or creation request omits one.
const DefaultRole = RoleDeveloper

// roleRanks orders the roles; a higher rank carries more privilege.
var roleRanks = map[Role]int{
	RoleAdmin:          3,
	RoleProjectManager: 2,
	RoleDeveloper:      1,
	RoleViewer:         0,
}

// lowestRank is what unknown roles resolve to.
const lowestRank = 0

// Roles returns every known role, highest rank first.
func Roles() []Role {
	return []Role{RoleAdmin, RoleProjectManager, RoleDeveloper, RoleViewer}
}

// ParseRole normalises s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(s))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the privilege rank of r. Unknown roles get the lowest rank.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return lowestRank
}

// IsTop reports whether r is the highest-ranked role.
func (r Role) IsTop() bool {
	return r == RoleAdmin
}

// CanCreate reports whether a user holding actor may create (or manage) a
// user holding target.
//
// Creating the top role requires already holding it; every other target
// requires a strictly higher rank than the target's.
func CanCreate(actor, target Role) bool {
	if !target.Valid() || !actor.Valid() {
		return false
	}
	if target.IsTop() {
		return actor.IsTop()
	}
	return actor.Rank() > target.Rank()
}

// RoleIn reports whether r is a member of allowed.
func RoleIn(r Role, allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
