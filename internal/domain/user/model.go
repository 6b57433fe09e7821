package user

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength       = 254
	MaxDisplayNameLength = 100
)

// Role constants. Owners list properties, renters book them, affiliates
// refer new users, admins run the marketplace.
const (
	RoleAdmin     = "admin"
	RoleOwner     = "owner"
	RoleRenter    = "renter"
	RoleAffiliate = "affiliate"
)

// User status constants
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleOwner, RoleRenter, RoleAffiliate}

// Domain errors
var (
	ErrEmptyID          = errors.New("user ID cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrInvalidRole      = errors.New("role must be one of: admin, owner, renter, affiliate")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
)

// User holds state for one marketplace account. Email may be empty for
// accounts provisioned through an external identity provider that did not
// share an address; such users cannot receive the email channel.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	Status       string // active, suspended
	PasswordHash string
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
func (u *User) Validate() error {
	if u.ID == "" {
		return ErrEmptyID
	}
	if u.Email != "" {
		if len(u.Email) > MaxEmailLength {
			return errors.New("email cannot exceed 254 characters")
		}
		if !strings.Contains(u.Email, "@") {
			return ErrInvalidEmail
		}
	}
	if len(u.DisplayName) > MaxDisplayNameLength {
		return errors.New("display name cannot exceed 100 characters")
	}
	if !isValidRole(u.Role) {
		return ErrInvalidRole
	}
	if u.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// Name returns the display name, falling back to the email address.
// INVARIANT: User fields are not mutated
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < 12 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is currently locked out.
// INVARIANT: User fields are not mutated
func (u *User) IsLocked() bool {
	if u.LockedUntil.IsZero() {
		return false
	}
	return time.Now().Before(u.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the account
// after 5 failures.
// PRE: User exists
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (u *User) RecordFailedLogin() {
	u.FailedLogins++
	if u.FailedLogins >= 5 {
		u.LockedUntil = time.Now().Add(15 * time.Minute)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
// PRE: User exists
// POST: FailedLogins is 0, LockedUntil is zero
func (u *User) ResetFailedLogins() {
	u.FailedLogins = 0
	u.LockedUntil = time.Time{}
}

// IsAdmin returns true if the user has admin role.
// INVARIANT: User fields are not mutated
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsSuspended returns true if the user is suspended.
// INVARIANT: User fields are not mutated
func (u *User) IsSuspended() bool {
	return u.Status == StatusSuspended
}

func isValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
