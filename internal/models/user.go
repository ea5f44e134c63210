package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleDGOffice  UserRole = "dg-office"
	RoleFeeOffice UserRole = "fee-office"
	RoleManager   UserRole = "manager"
	RoleTutor     UserRole = "tutor"
	RoleStudent   UserRole = "student"
)

// AllRoles lists every role in display order.
var AllRoles = []UserRole{RoleAdmin, RoleDGOffice, RoleFeeOffice, RoleManager, RoleTutor, RoleStudent}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// SingleHolder reports whether at most one active account may hold the role.
func (r UserRole) SingleHolder() bool {
	return r == RoleDGOffice || r == RoleFeeOffice
}

// SelfRegisterable reports whether the role may be chosen at self-registration.
func (r UserRole) SelfRegisterable() bool {
	return r == RoleTutor || r == RoleManager
}

// User represents an application user stored in the users table.
type User struct {
	ID                 string     `db:"id" json:"id"`
	Email              *string    `db:"email" json:"email,omitempty"`
	RegistrationNumber *string    `db:"registration_number" json:"registrationNumber,omitempty"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	FullName           string     `db:"full_name" json:"fullName"`
	Role               UserRole   `db:"role" json:"role"`
	Department         string     `db:"department" json:"department,omitempty"`
	Active             bool       `db:"active" json:"active"`
	LastLogin          *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// EmailValue returns the email or an empty string.
func (u *User) EmailValue() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// RegistrationValue returns the registration number or an empty string.
func (u *User) RegistrationValue() string {
	if u == nil || u.RegistrationNumber == nil {
		return ""
	}
	return *u.RegistrationNumber
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
