// Package models defines the core domain models for accounts and company
// profiles, independent of how they are stored or transported.
package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Gender is the self-declared gender of an account holder.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// SignupTypeEmail marks accounts created through the email/password form.
const SignupTypeEmail = "e"

// Password length bounds, in bytes. bcrypt rejects input past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// mobileRule is E.164 with no leading zero in the country code.
const mobileRule = "e164,startsnotwith=+0"

var validate = validator.New()

// Valid reports whether g is one of the accepted values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// Account is a person's login identity.
type Account struct {
	// ID is the unique identifier for the account.
	ID uuid.UUID
	// Email is unique and always stored lower-cased.
	Email string
	// PasswordHash is the bcrypt digest of the password. Never exposed.
	PasswordHash string
	// FullName is the display name of the account holder.
	FullName string
	// Gender is one of M, F, O.
	Gender Gender
	// MobileNo is the canonical "+digits" phone number, nil when absent.
	MobileNo *string
	// SignupType discriminates the account class.
	SignupType string
	// IsMailVerified is set once the email address has been confirmed.
	IsMailVerified bool
	// IsMobileVerified is set once an OTP sent to MobileNo has been confirmed.
	IsMobileVerified bool
	// CreatedAt records when the account was created.
	CreatedAt time.Time
	// UpdatedAt records the last modification.
	UpdatedAt time.Time
}

// Registration is the normalised input of the registration workflow.
type Registration struct {
	Email      string
	Password   string
	FullName   string
	Gender     Gender
	MobileNo   *string
	SignupType string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *Account
}

// Identity is what a verified bearer token proves about its holder.
type Identity struct {
	AccountID uuid.UUID
	Email     string
}

// NormalizeEmail trims and lower-cases an email address so that uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeGender upper-cases a gender code.
func NormalizeGender(g string) Gender {
	return Gender(strings.ToUpper(strings.TrimSpace(g)))
}

// NormalizeMobile keeps only a leading plus sign and digits. It returns nil
// for input that contains no digits at all.
func NormalizeMobile(raw string) *string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.TrimPrefix(out, "+") == "" {
		return nil
	}
	return &out
}

// ValidMobile reports whether s is a canonical E.164 mobile number.
func ValidMobile(s string) bool {
	return validate.Var(s, mobileRule) == nil
}

// ValidPasswordLength reports whether p fits the password bounds, counted
// in bytes.
func ValidPasswordLength(p string) bool {
	return len(p) >= MinPasswordLength && len(p) <= MaxPasswordLength
}
