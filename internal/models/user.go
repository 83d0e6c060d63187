package models

// UserRole is the institutional role supplied by the identity provider.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleSupervisor UserRole = "SUPERVISOR"
	RoleFaculty    UserRole = "FACULTY"
	RoleStaff      UserRole = "STAFF"

	// RoleService is held by machine callers such as the expense pipeline.
	// It is never assigned to a user row.
	RoleService UserRole = "SERVICE"
)

// IsAssignable reports whether r may be stored on a user.
func (r UserRole) IsAssignable() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleFaculty, RoleStaff:
		return true
	}
	return false
}

// User is a portal user. Accounts are provisioned by the identity
// provider; this table only mirrors what the ledger needs.
type User struct {
	Base
	Email     string   `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `gorm:"size:16;not null;index" json:"role"`
	IsActive  bool     `gorm:"default:true" json:"is_active"`
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.Email
}
