package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v7"

	"github.com/adonese/accountd/apperr"
	"github.com/adonese/accountd/ident"
)

func newTestRefreshStore(t *testing.T) (*RefreshStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &RefreshStore{Redis: client, TTL: 30 * 24 * time.Hour}, mr
}

func TestRefreshIssueValidate(t *testing.T) {
	store, _ := newTestRefreshStore(t)

	token, err := store.Issue("acct123456789012")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(token) != ident.SecretLength {
		t.Errorf("token length = %d, want %d", len(token), ident.SecretLength)
	}

	accountID, err := store.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if accountID != "acct123456789012" {
		t.Errorf("account id = %q", accountID)
	}

	// validation does not consume the token
	if _, err := store.Validate(token); err != nil {
		t.Fatalf("second validate: %v", err)
	}
}

func TestRefreshExpires(t *testing.T) {
	store, mr := newTestRefreshStore(t)

	token, err := store.Issue("acct123456789012")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mr.FastForward(store.TTL + time.Minute)

	if _, err := store.Validate(token); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("got %v, want invalid_token", err)
	}
}

func TestRefreshRevoke(t *testing.T) {
	store, _ := newTestRefreshStore(t)

	token, err := store.Issue("acct123456789012")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Revoke(token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := store.Validate(token); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("got %v, want invalid_token", err)
	}
	// revoking again is harmless
	if err := store.Revoke(token); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	store, _ := newTestRefreshStore(t)
	for _, token := range []string{"", "nope"} {
		if _, err := store.Validate(token); !errors.Is(err, apperr.ErrInvalidToken) {
			t.Errorf("token %q: got %v, want invalid_token", token, err)
		}
	}
}

func TestTokenServiceIssuePair(t *testing.T) {
	refresh, _ := newTestRefreshStore(t)
	svc := &TokenService{JWT: testJWTAuth(15 * time.Minute), Refresh: refresh}

	creds, err := svc.Issue("acct123456789012")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		t.Fatal("incomplete credential pair")
	}
	accountID, err := svc.ValidateRefreshToken(creds.RefreshToken)
	if err != nil || accountID != "acct123456789012" {
		t.Fatalf("validate refresh: %q, %v", accountID, err)
	}
	claims, err := svc.JWT.VerifyJWT(creds.AccessToken)
	if err != nil || claims.AccountID != "acct123456789012" {
		t.Fatalf("verify access: %+v, %v", claims, err)
	}
}
