package models

import (
	"time"

	"github.com/adonese/accountd/apperr"
)

// CreateWithEmail creates an account reachable by email only.
type CreateWithEmail struct {
	Email    string
	Timezone string
}

// CreateWithPhone creates an account reachable by phone only.
type CreateWithPhone struct {
	Phone    string
	Timezone string
}

// GoogleData carries the provider identity and tokens obtained from a
// completed code exchange.
type GoogleData struct {
	ID           string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// CreateWithGoogle creates an account from a Google sign-in: the google
// email plus an initial provider link.
type CreateWithGoogle struct {
	Email    string
	Timezone string
	Google   GoogleData
}

// CreateInput is a tagged union over the three account creation shapes.
// Exactly one arm must be populated.
type CreateInput struct {
	Email  *CreateWithEmail
	Phone  *CreateWithPhone
	Google *CreateWithGoogle
}

// Validate enforces the exactly-one-arm rule and the per-arm required
// fields.
func (i CreateInput) Validate() error {
	populated := 0
	if i.Email != nil {
		populated++
	}
	if i.Phone != nil {
		populated++
	}
	if i.Google != nil {
		populated++
	}
	if populated != 1 {
		return apperr.WithMessage(apperr.ErrInvalidInput, "exactly one creation shape must be provided")
	}
	switch {
	case i.Email != nil && NormalizeEmail(i.Email.Email) == "":
		return apperr.WithMessage(apperr.ErrInvalidInput, "email is required")
	case i.Phone != nil && NormalizePhone(i.Phone.Phone) == "":
		return apperr.WithMessage(apperr.ErrInvalidInput, "phone is required")
	case i.Google != nil && (NormalizeEmail(i.Google.Email) == "" || i.Google.Google.ID == ""):
		return apperr.WithMessage(apperr.ErrInvalidInput, "google email and subject are required")
	}
	return nil
}

// Timezone returns the timezone of whichever arm is populated.
func (i CreateInput) Timezone() string {
	switch {
	case i.Email != nil:
		return i.Email.Timezone
	case i.Phone != nil:
		return i.Phone.Timezone
	case i.Google != nil:
		return i.Google.Timezone
	}
	return ""
}

// UpdateProviderInput keys a provider-token upsert.
type UpdateProviderInput struct {
	AccountID    string
	Provider     SignInProvider
	ProviderID   string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
