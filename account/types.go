package account

import (
	"context"
	"time"

	"github.com/adonese/accountd/models"
)

// Store is the account repository consumed by the orchestrator. Lookups
// return (nil, nil) when nothing matches.
type Store interface {
	Create(ctx context.Context, i models.CreateInput) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByPhone(ctx context.Context, phone string) (*models.Account, error)
	GetByProvider(ctx context.Context, provider models.SignInProvider, providerID string) (*models.Account, error)
	GetManyByProvider(ctx context.Context, provider models.SignInProvider, providerID, email string) ([]models.Account, error)
	UpdateProviderTokens(ctx context.Context, i models.UpdateProviderInput) error
	SetOtpSecret(ctx context.Context, accountID, secret string) error
	MarkVerified(ctx context.Context, accountID string) error
}

// ProviderTokens is what a completed OAuth code exchange yields.
type ProviderTokens struct {
	ProviderID   string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// OAuthProvider exchanges authorization codes at an external provider.
type OAuthProvider interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (ProviderTokens, error)
}

// Issuer mints and validates session credentials.
type Issuer interface {
	Issue(accountID string) (models.Credentials, error)
	IssueAccess(accountID string) (string, time.Time, error)
	ValidateRefreshToken(token string) (string, error)
}

// SMSSender delivers verification codes. Implementations must not be
// retried by the orchestrator; delivery failure is logged, not fatal.
type SMSSender interface {
	Send(ctx context.Context, mobile, message string) error
}

// CreateWithEmailInput registers an account by email.
type CreateWithEmailInput struct {
	Email    string
	Timezone string
}

// CreateWithPhoneInput registers an account by phone.
type CreateWithPhoneInput struct {
	Phone    string
	Timezone string
}

// CreateWithGoogleInput signs in (or up) through a Google authorization
// code. OriginURL is the redirect URI the code was obtained with.
type CreateWithGoogleInput struct {
	Code      string
	OriginURL string
	Timezone  string
}

// ExchangeCodeInput re-exchanges a code for an already known account.
type ExchangeCodeInput struct {
	AccountID string
	Code      string
}

// RefreshTokenInput carries a previously issued refresh token.
type RefreshTokenInput struct {
	RefreshToken string
}

// IamInput identifies the caller, typically from a validated access
// token upstream.
type IamInput struct {
	ID string
}

// VerifyPhoneInput confirms ownership of a phone number with the code
// sent to it.
type VerifyPhoneInput struct {
	Phone string
	Code  string
}

// AuthOutput is the credential pair returned on successful sign-in.
// IsFirstAccess is set only when this call created the account.
type AuthOutput struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	ExpiresAt     time.Time `json:"expires_at"`
	IsFirstAccess bool      `json:"is_first_access,omitempty"`
}

// RefreshOutput is the result of a token refresh: a new access token,
// same refresh token.
type RefreshOutput struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IamOutput is the canonical identity of the caller.
type IamOutput struct {
	ID       string `json:"id"`
	GoogleID string `json:"google_id,omitempty"`
}
