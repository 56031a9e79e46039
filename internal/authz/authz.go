// Package authz decides whether a principal may exercise a capability.
// It is pure: no I/O, no storage access, and every function is total for
// well-formed input.
package authz

import (
	"errors"

	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// ErrUnauthenticated is returned when no principal is present at all.
// It is distinct from ErrForbidden: missing identity, not insufficient
// privilege. The HTTP layer maps it to 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden is returned when a resolved principal lacks the required
// role or rank. The HTTP layer maps it to 403. A denial is final for the
// request; it is never retried or downgraded to a partial result.
var ErrForbidden = errors.New("forbidden")

// staffRank orders the staff roles. Zero means "not a staff role".
// Holding a higher rank satisfies any requirement for a lower one.
// Adding a new tier only requires a new entry here; everything else
// derives from the ordering.
func staffRank(role types.Role) int {
	switch role {
	case types.RoleModerator:
		return 1
	case types.RoleManager:
		return 2
	case types.RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Principal is the authenticated identity authorization decisions are
// made against. Construct it from a user record with PrincipalOf.
type Principal struct {
	UserID  int
	IsAdmin bool
	Roles   []types.Role
}

// PrincipalOf builds a Principal from a stored user record.
func PrincipalOf(user types.User) Principal {
	return Principal{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		Roles:   user.Roles,
	}
}

// IsSuperuser reports whether the principal has unconditional access.
// Two generations of the permission model coexist on user records: the
// legacy is_admin flag and the newer admin role. A record may carry
// either or both, so both paths are honored here and nowhere else.
func (p Principal) IsSuperuser() bool {
	if p.IsAdmin {
		return true
	}
	for _, role := range p.Roles {
		if role == types.RoleAdmin {
			return true
		}
	}
	return false
}

// rank returns the highest staff rank among the principal's roles,
// zero when none is held.
func (p Principal) rank() int {
	highest := 0
	for _, role := range p.Roles {
		if r := staffRank(role); r > highest {
			highest = r
		}
	}
	return highest
}

// HasRole reports whether the principal satisfies the given role
// requirement. Superusers satisfy everything; staff roles are satisfied
// by equal or higher rank; other roles by plain membership.
func HasRole(p Principal, role types.Role) bool {
	if p.IsSuperuser() {
		return true
	}
	if required := staffRank(role); required > 0 {
		return p.rank() >= required
	}
	for _, held := range p.Roles {
		if held == role {
			return true
		}
	}
	return false
}

// RequireAnyRole grants when the principal satisfies at least one of the
// given roles. An empty requirement list denies: absent requirements
// fail closed rather than open. A nil principal denies with
// ErrUnauthenticated.
func RequireAnyRole(p *Principal, roles []types.Role) error {
	if p == nil {
		return ErrUnauthenticated
	}
	for _, role := range roles {
		if HasRole(*p, role) {
			return nil
		}
	}
	return ErrForbidden
}

// RequireAdmin grants only to superusers and admin-ranked principals.
func RequireAdmin(p *Principal) error {
	return RequireAnyRole(p, []types.Role{types.RoleAdmin})
}
