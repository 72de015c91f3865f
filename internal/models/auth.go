package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=100"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and the sanitized user.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	IssuedAt  time.Time    `json:"issued_at"`
	User      UserResponse `json:"user"`
}

// JWTClaims is the signed token payload. It identifies the user; role and
// active flags are re-read from storage on every authenticated request.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Active   bool   `json:"active"`
	jwt.RegisteredClaims
}

// Principal is the acting user attached to an authenticated request,
// loaded authoritatively from storage after token verification.
type Principal struct {
	User  User
	Roles UserRoles
}

// IsAdmin reports whether the principal carries the admin flag.
func (p *Principal) IsAdmin() bool { return p != nil && p.Roles.IsAdmin }

// IsTeacher reports whether the principal carries the teacher flag.
func (p *Principal) IsTeacher() bool { return p != nil && p.Roles.IsTeacher }

// IsStudent reports whether the principal carries the student flag.
func (p *Principal) IsStudent() bool { return p != nil && p.Roles.IsStudent }
