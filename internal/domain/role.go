package domain

import "strings"

// Role is the closed set of role codes a user can hold.
type Role string

const (
	RoleUnknown    Role = ""
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RolePD         Role = "PD"
	RoleMD         Role = "MD"
	RoleTD         Role = "TD"
	RoleCosting    Role = "COSTING"
	RoleFactory    Role = "FACTORY"
)

// AllRoles lists every known role in display order.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RolePD, RoleMD, RoleTD, RoleCosting, RoleFactory}

// RoleClass is the coarse grouping consulted before the permission table.
type RoleClass int

const (
	ClassNone RoleClass = iota
	ClassAdmin
	ClassEditor
)

func (c RoleClass) String() string {
	switch c {
	case ClassAdmin:
		return "admin"
	case ClassEditor:
		return "editor"
	default:
		return "none"
	}
}

// ParseRole maps a role code to the enumeration. Unknown codes yield RoleUnknown.
func ParseRole(code string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(code)))
	switch r {
	case RoleSuperAdmin, RoleAdmin, RolePD, RoleMD, RoleTD, RoleCosting, RoleFactory:
		return r
	default:
		return RoleUnknown
	}
}

// Class returns the role-class of r.
func (r Role) Class() RoleClass {
	switch r {
	case RoleSuperAdmin, RoleAdmin:
		return ClassAdmin
	case RolePD, RoleMD, RoleTD, RoleCosting, RoleFactory:
		return ClassEditor
	case RoleUnknown:
		return ClassNone
	default:
		return ClassNone
	}
}

func (r Role) IsAdmin() bool  { return r.Class() == ClassAdmin }
func (r Role) IsEditor() bool { return r.Class() == ClassEditor }
func (r Role) Valid() bool    { return r.Class() != ClassNone }

// DisplayName is used when seeding the roles table.
func (r Role) DisplayName() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Administrator"
	case RoleAdmin:
		return "Administrator"
	case RolePD:
		return "Product Development"
	case RoleMD:
		return "Merchandising"
	case RoleTD:
		return "Technical Design"
	case RoleCosting:
		return "Costing"
	case RoleFactory:
		return "Factory"
	case RoleUnknown:
		return "Unknown"
	default:
		return string(r)
	}
}
