package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
	MaxTextLength = 200
)

// Member status values, stored as shown to members.
const (
	StatusActive   = "Ativo"
	StatusInactive = "Inativo"
	StatusAbsent   = "Ausente"
	StatusDeceased = "Falecido"
)

// Role values mirror the account roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// DateLayout is the wire and form format of date-only fields.
const DateLayout = "2006-01-02"

// Table is the change-feed table name for profiles.
const Table = "users"

// ValidStatuses lists the accepted membership statuses. Empty means unset.
var ValidStatuses = []string{StatusActive, StatusInactive, StatusAbsent, StatusDeceased}

// Genders offered by the edit screen.
var Genders = []string{"Masculino", "Feminino", "Outro"}

// Groups are the GCEU cells a member can belong to.
var Groups = []string{"Aliança", "GCEU1", "GCEU2", "GCEU3", "GCEU4"}

// Domain errors
var (
	ErrEmptyID       = errors.New("profile id cannot be empty")
	ErrNameTooLong   = errors.New("name cannot exceed 100 characters")
	ErrInvalidStatus = errors.New("member status must be one of: Ativo, Inativo, Ausente, Falecido")
	ErrInvalidDate   = errors.New("date must be in YYYY-MM-DD format")
	ErrIDMismatch    = errors.New("profile id must match the signed-in identity")
)

// Profile is a member's record in the users table.
// INVARIANT: ID equals the owning account's ID and never changes.
type Profile struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	AvatarURL      string     `json:"avatar_url"`
	BirthDate      *time.Time `json:"birth_date"`
	Gender         string     `json:"gender"`
	PhoneMobile    string     `json:"phone_mobile"`
	PhoneLandline  string     `json:"phone_landline"`
	Street         string     `json:"street"`
	Number         string     `json:"number"`
	Neighborhood   string     `json:"neighborhood"`
	City           string     `json:"city"`
	ConversionDate *time.Time `json:"conversion_date"`
	BaptismDate    *time.Time `json:"baptism_date"`
	Ministry       string     `json:"ministry"`
	MemberStatus   string     `json:"member_status"`
	EntryDate      *time.Time `json:"entry_date"`
	GroupName      string     `json:"group_name"`
	Role           string     `json:"role"`
}

// Validate checks the profile's invariants.
// PRE: none
// POST: returns nil if valid, the first violation otherwise
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	for _, v := range []string{p.Email, p.AvatarURL, p.Street, p.Neighborhood, p.City, p.Ministry} {
		if len(v) > MaxTextLength {
			return fmt.Errorf("field cannot exceed %d characters", MaxTextLength)
		}
	}
	if p.MemberStatus != "" && !contains(ValidStatuses, p.MemberStatus) {
		return ErrInvalidStatus
	}
	return nil
}

// IsAdmin reports whether the member holds the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ParseDate converts a form date to a date value.
// An empty string yields nil so the field can be cleared.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

// FormatDate renders a date value for a form; nil renders as empty.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
