package gateway

import (
	"time"

	"github.com/adonese/accountd/models"
)

// TokenService is the credential issuer: JWT access tokens paired with
// redis-backed refresh tokens. The refresh token is never rotated by a
// refresh call; it lives until its TTL runs out or it is revoked.
type TokenService struct {
	JWT     *JWTAuth
	Refresh *RefreshStore
}

// Issue returns a fresh credential pair for the account.
func (t *TokenService) Issue(accountID string) (models.Credentials, error) {
	access, expiresAt, err := t.JWT.GenerateJWT(accountID)
	if err != nil {
		return models.Credentials{}, err
	}
	refresh, err := t.Refresh.Issue(accountID)
	if err != nil {
		return models.Credentials{}, err
	}
	return models.Credentials{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

// IssueAccess mints a new access token only.
func (t *TokenService) IssueAccess(accountID string) (string, time.Time, error) {
	return t.JWT.GenerateJWT(accountID)
}

// ValidateRefreshToken resolves a refresh token to the account it was
// issued for.
func (t *TokenService) ValidateRefreshToken(token string) (string, error) {
	return t.Refresh.Validate(token)
}

// RevokeRefreshToken invalidates a refresh token.
func (t *TokenService) RevokeRefreshToken(token string) error {
	return t.Refresh.Revoke(token)
}
