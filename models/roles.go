package models

import "fmt"

// Role is the fixed set of roles a user can hold
type Role string

// Roles available in the system. The string values are persisted.
const (
	RoleCitizen       Role = "Citizen"
	RoleDispatch      Role = "Dispatch"
	RolePolice        Role = "Police"
	RoleFire          Role = "Fire"
	RoleNurse         Role = "Nurse"
	RoleCityDirector  Role = "City Director"
	RolePoliceChief   Role = "Police Chief"
	RoleFireChief     Role = "Fire Chief"
	RoleAdministrator Role = "Administrator"
)

// AllRoles lists every role, in declaration order
var AllRoles = []Role{
	RoleCitizen,
	RoleDispatch,
	RolePolice,
	RoleFire,
	RoleNurse,
	RoleCityDirector,
	RolePoliceChief,
	RoleFireChief,
	RoleAdministrator,
}

// ParseRole returns the Role matching s, or ErrInvalidState
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q: %w", s, ErrInvalidState)
}

// IsResponder reports whether the role staffs vehicles in the field
func (r Role) IsResponder() bool {
	return r == RolePolice || r == RoleFire
}

// Room is the broadcast group every connection with this role joins
func (r Role) Room() string {
	return "role:" + string(r)
}
