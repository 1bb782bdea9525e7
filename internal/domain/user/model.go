package user

import (
	"strings"
	"time"
)

// User represents an account in the system
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Role is an account role.
type Role string

// User roles
const (
	RoleCitizen      Role = "citizen"
	RoleEMSPersonnel Role = "ems_personnel"
	RoleAdmin        Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleEMSPersonnel, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may dispatch or respond.
func (r Role) IsStaff() bool {
	return r == RoleEMSPersonnel || r == RoleAdmin
}

// StaffRoles lists the roles that receive new-alert pushes.
func StaffRoles() []Role {
	return []Role{RoleEMSPersonnel, RoleAdmin}
}

// Actor is the verified identity behind a request.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`
}

// IsStaff reports whether a is a non-nil staff actor.
func (a *Actor) IsStaff() bool {
	return a != nil && a.Role.IsStaff()
}

// IsAdmin reports whether a is a non-nil admin actor.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}
