package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/adonese/accountd/apperr"
	"github.com/adonese/accountd/models"
)

func testJWTAuth(ttl time.Duration) *JWTAuth {
	return &JWTAuth{Key: []byte("test-secret"), AccessTTL: ttl}
}

func TestGenerateAndVerifyJWT(t *testing.T) {
	auth := testJWTAuth(15 * time.Minute)

	token, expiresAt, err := auth.GenerateJWT("acct123456789012")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) < 14*time.Minute {
		t.Errorf("expiry too soon: %v", expiresAt)
	}

	claims, err := auth.VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.AccountID != "acct123456789012" {
		t.Errorf("account id = %q", claims.AccountID)
	}
	if claims.Issuer != issuerName {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestVerifyExpiredJWT(t *testing.T) {
	auth := testJWTAuth(-time.Minute)
	token, _, err := auth.GenerateJWT("acct123456789012")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	_, err = auth.VerifyJWT(token)
	if !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("got %v, want invalid_token", err)
	}
}

func TestVerifyGarbageJWT(t *testing.T) {
	auth := testJWTAuth(15 * time.Minute)
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := auth.VerifyJWT(token); !errors.Is(err, apperr.ErrInvalidToken) {
			t.Errorf("token %q: got %v, want invalid_token", token, err)
		}
	}
}

func TestVerifyWrongKey(t *testing.T) {
	token, _, err := testJWTAuth(15 * time.Minute).GenerateJWT("acct123456789012")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	other := &JWTAuth{Key: []byte("other-secret"), AccessTTL: 15 * time.Minute}
	if _, err := other.VerifyJWT(token); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("got %v, want invalid_token", err)
	}
}

func TestNewJWTAuthDefaults(t *testing.T) {
	auth := NewJWTAuth(models.Config{})
	if auth.AccessTTL != 15*time.Minute {
		t.Errorf("default ttl = %v", auth.AccessTTL)
	}
	if len(auth.Key) == 0 {
		t.Error("key not generated")
	}
}
