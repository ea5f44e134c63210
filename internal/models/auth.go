package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user. Identifier is an
// email for staff or a registration number for students.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        UserInfo  `json:"user"`
	Home        string    `json:"home"`
}

// RegisterRequest is the self-registration payload for staff roles.
type RegisterRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	FullName   string   `json:"fullName" validate:"required"`
	Password   string   `json:"password" validate:"required,min=8"`
	Role       UserRole `json:"role" validate:"required"`
	Department string   `json:"department" validate:"required"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID                 string   `json:"id"`
	Email              string   `json:"email,omitempty"`
	RegistrationNumber string   `json:"registrationNumber,omitempty"`
	FullName           string   `json:"fullName"`
	Role               UserRole `json:"role"`
	Department         string   `json:"department,omitempty"`
}

// JWTClaims represents the JWT payload carried in the session cookie.
type JWTClaims struct {
	UserID             string   `json:"id"`
	Role               UserRole `json:"role"`
	Email              string   `json:"email,omitempty"`
	RegistrationNumber string   `json:"registrationNumber,omitempty"`
	FullName           string   `json:"fullName"`
	Department         string   `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// Info projects the claims into the public user shape.
func (c *JWTClaims) Info() UserInfo {
	return UserInfo{
		ID:                 c.UserID,
		Email:              c.Email,
		RegistrationNumber: c.RegistrationNumber,
		FullName:           c.FullName,
		Role:               c.Role,
		Department:         c.Department,
	}
}
