package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
	MinPassword    = 8
)

// Role constants
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Account status constants
const (
	StatusActive              = "active"
	StatusPendingConfirmation = "pending_confirmation"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleMember}

// Domain errors. Messages mirror the auth provider's wording so that
// Translate can map them to user-facing text.
var (
	ErrInvalidEmail       = errors.New("missing email or phone")
	ErrInvalidRole        = errors.New("role must be one of: admin, member")
	ErrEmptyPassword      = errors.New("Signup requires a valid password")
	ErrPasswordTooShort   = errors.New("Password should be at least 8 characters.")
	ErrWrongPassword      = errors.New("Invalid login credentials")
	ErrAlreadyRegistered  = errors.New("User already registered")
	ErrNotConfirmed       = errors.New("Email not confirmed")
	ErrTokenExpired       = errors.New("confirmation link has expired")
	ErrTokenInvalid       = errors.New("confirmation token is invalid")
	ErrAlreadyConfirmed   = errors.New("account is already confirmed")
	ErrMissingCredentials = errors.New("Anonymous sign-ins are disabled")
)

// Account is the auth provider's record of a member's credentials.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// ConfirmationToken is a time-limited token emailed on sign-up.
type ConfirmationToken struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	email := strings.TrimSpace(a.Email)
	if email == "" || len(email) > MaxEmailLength || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if !isValidRole(a.Role) {
		return ErrInvalidRole
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= MinPassword characters
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPassword {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is currently locked out.
func (a *Account) IsLocked() bool {
	if a.LockedUntil.IsZero() {
		return false
	}
	return time.Now().Before(a.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the account after 5 failures.
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (a *Account) RecordFailedLogin() {
	a.FailedLogins++
	if a.FailedLogins >= 5 {
		a.LockedUntil = time.Now().Add(15 * time.Minute)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

// IsAdmin returns true if the account has admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsPendingConfirmation returns true until the sign-up email link is followed.
func (a *Account) IsPendingConfirmation() bool {
	return a.Status == StatusPendingConfirmation
}

// Confirm transitions the account from pending to active.
// PRE: Account is pending confirmation
// POST: Status is active
func (a *Account) Confirm() error {
	if a.Status == StatusActive {
		return ErrAlreadyConfirmed
	}
	a.Status = StatusActive
	return nil
}

// IsExpired returns true if the confirmation token has expired.
func (t *ConfirmationToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Invalidate marks the token as used.
func (t *ConfirmationToken) Invalidate() {
	t.Used = true
}

func isValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
