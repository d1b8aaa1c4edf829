package model

import "strings"

type Role string

const (
	RoleTenant Role = "tenant"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleTenant, RoleOwner, RoleAdmin:
		return r, true
	}
	return "", false
}

func (r Role) CanCreateBooking() bool { return r == RoleTenant }

// CanTransitionStatus is the role gate only; owners must also own the listing.
func (r Role) CanTransitionStatus() bool { return r == RoleOwner || r == RoleAdmin }

// CanCancel is the role gate only; non-admins must be a party to the reservation.
func (r Role) CanCancel() bool { return r == RoleTenant || r == RoleOwner || r == RoleAdmin }

func (r Role) CanDelete() bool { return r == RoleOwner || r == RoleAdmin }

func (r Role) CanListOwn() bool { return r == RoleTenant || r == RoleOwner }

func (r Role) CanListAll() bool { return r == RoleAdmin }

func (r Role) IsAdmin() bool { return r == RoleAdmin }
