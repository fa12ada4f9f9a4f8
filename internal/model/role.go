// Package model defines domain types shared across the application:
// roles and their capability predicates, application review statuses,
// intake scheduling types, and event log constants.
package model

// Role is a member role. Roles are totally ordered by rank for
// authorization checks; staff and builder share a rank but remain
// distinct labels.
type Role string

// Member roles.
const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleBuilder Role = "builder"
	RoleUser    Role = "user"
)

// AllRoles lists every valid role, highest rank first.
var AllRoles = []Role{RoleOwner, RoleAdmin, RoleManager, RoleStaff, RoleBuilder, RoleUser}

// Rank returns the numeric level used for hierarchy comparisons.
// Unknown roles rank below everything.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 6
	case RoleAdmin:
		return 5
	case RoleManager:
		return 3
	case RoleStaff:
		return 2
	case RoleBuilder:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the six known roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Label returns the display name shown in the admin console.
func (r Role) Label() string {
	switch r {
	case RoleOwner:
		return "Owner"
	case RoleAdmin:
		return "Admin"
	case RoleManager:
		return "Manager"
	case RoleStaff:
		return "Staff"
	case RoleBuilder:
		return "Builder"
	case RoleUser:
		return "Member"
	default:
		return string(r)
	}
}

// CanAccessAdmin reports whether the role may open the admin console.
func (r Role) CanAccessAdmin() bool {
	return r.Rank() >= RoleStaff.Rank()
}

// CanReviewApplications reports whether the role may review, annotate,
// or delete membership applications.
func (r Role) CanReviewApplications() bool {
	return r.Rank() >= RoleManager.Rank()
}

// CanManageRoles reports whether the role may change other members'
// roles, passwords, profiles, and ban status.
func (r Role) CanManageRoles() bool {
	return r.Rank() >= RoleAdmin.Rank()
}

// CanManageSettings reports whether the role may edit site settings,
// including intake status and content.
func (r Role) CanManageSettings() bool {
	return r.Rank() >= RoleAdmin.Rank()
}

// CanDeleteAccounts reports whether the role may delete member accounts.
// This is owner-exclusive by identity, not by rank.
func (r Role) CanDeleteAccounts() bool {
	return r == RoleOwner
}
