// Package models defines the server-side entities persisted in PostgreSQL.
package models

import "time"

// Role is a user's authority level.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// Roles lists every assignable role.
var Roles = []Role{RoleUser, RoleAdmin}

// ParseRole accepts both "ROLE_ADMIN" and "admin" spellings.
func ParseRole(s string) (Role, bool) {
	switch s {
	case string(RoleUser), "user", "USER":
		return RoleUser, true
	case string(RoleAdmin), "admin", "ADMIN":
		return RoleAdmin, true
	}
	return "", false
}

// Sign-up methods.
const (
	SignUpEmail  = "email"
	SignUpGitHub = "github"
	SignUpGoogle = "google"
)

// User is an account. Users are never hard-deleted.
type User struct {
	ID       int64  `json:"userId"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	// PasswordHash is empty for accounts created through OAuth2.
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`

	AccountNonLocked      bool       `json:"accountNonLocked"`
	AccountNonExpired     bool       `json:"accountNonExpired"`
	CredentialsNonExpired bool       `json:"credentialsNonExpired"`
	Enabled               bool       `json:"enabled"`
	CredentialsExpiryDate *time.Time `json:"credentialsExpiryDate"`
	AccountExpiryDate     *time.Time `json:"accountExpiryDate"`

	TwoFactorSecret  string `json:"-"`
	TwoFactorEnabled bool   `json:"isTwoFactorEnabled"`
	SignUpMethod     string `json:"signUpMethod"`

	CreatedAt time.Time `json:"createdDate"`
	UpdatedAt time.Time `json:"updatedDate"`
}

// IsAdmin reports whether u holds ROLE_ADMIN.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AccountExpired is true when the flag is cleared or the expiry date is past.
func (u *User) AccountExpired(now time.Time) bool {
	return !u.AccountNonExpired || (u.AccountExpiryDate != nil && now.After(*u.AccountExpiryDate))
}

// CredentialsExpired is true when the flag is cleared or the expiry date is past.
func (u *User) CredentialsExpired(now time.Time) bool {
	return !u.CredentialsNonExpired || (u.CredentialsExpiryDate != nil && now.After(*u.CredentialsExpiryDate))
}

// PasswordResetToken is a single-use token mailed to a user.
type PasswordResetToken struct {
	ID         int64
	Token      string
	UserID     int64
	ExpiryDate time.Time
	Used       bool
}

// Expired reports whether the token can no longer be redeemed at now.
// A token redeemed exactly at its expiry instant is still valid.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiryDate)
}
