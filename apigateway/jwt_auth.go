// Package gateway implements the credential issuing and auth middleware
// used across accountd: JWT access tokens, redis-backed refresh tokens
// and the gin middleware that guards authenticated routes.
package gateway

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/adonese/accountd/apperr"
	"github.com/adonese/accountd/models"
)

const issuerName = "accountd"

// TokenClaims is the accountd access-token claim set.
type TokenClaims struct {
	AccountID string `json:"account_id"`
	jwt.StandardClaims
}

// JWTAuth signs and verifies access tokens.
type JWTAuth struct {
	Key       []byte
	AccessTTL time.Duration
}

// NewJWTAuth builds a JWTAuth from config. When no signing key is
// configured a random one is generated, which invalidates outstanding
// tokens across restarts; fine for development, not for production.
func NewJWTAuth(cfg models.Config) *JWTAuth {
	ttl := time.Duration(cfg.AccessTokenMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	key := []byte(cfg.JWTKey)
	if len(key) == 0 {
		key, _ = GenerateSecretKey(50)
	}
	return &JWTAuth{Key: key, AccessTTL: ttl}
}

// GenerateJWT signs a fresh access token for the account.
func (j *JWTAuth) GenerateJWT(accountID string) (string, time.Time, error) {
	if len(j.Key) == 0 {
		return "", time.Time{}, apperr.WithMessage(apperr.ErrInternal, "empty jwt key")
	}
	expiresAt := time.Now().Add(j.AccessTTL).UTC()
	claims := TokenClaims{
		AccountID: accountID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().UTC().Unix(),
			ExpiresAt: expiresAt.Unix(),
			Issuer:    issuerName,
			Subject:   accountID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.Key)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(err, apperr.ErrInternal, "sign access token")
	}
	return signed, expiresAt, nil
}

// VerifyJWT validates an access token and returns its claims. Expired and
// malformed tokens both come back as invalid_token.
func (j *JWTAuth) VerifyJWT(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Key, nil
	})
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			return nil, apperr.Wrap(err, apperr.ErrInvalidToken, "token has expired")
		}
		return nil, apperr.Wrap(err, apperr.ErrInvalidToken, "malformed token")
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, apperr.WithMessage(apperr.ErrInvalidToken, "malformed token")
	}
	return claims, nil
}

// GenerateSecretKey generates key material for jwt signing.
func GenerateSecretKey(n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
