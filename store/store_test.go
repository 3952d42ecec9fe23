package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/adonese/accountd/apperr"
	"github.com/adonese/accountd/models"
)

func newTestStore(t *testing.T, encryptionKey string) (*Store, *gorm.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDB(dbPath, false)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	s, err := New(db, encryptionKey)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s, db
}

func googleInput(email, sub string) models.CreateInput {
	return models.CreateInput{Google: &models.CreateWithGoogle{
		Email:    email,
		Timezone: "UTC",
		Google: models.GoogleData{
			ID:           sub,
			AccessToken:  "at-" + sub,
			RefreshToken: "rt-" + sub,
			ExpiresAt:    time.Now().Add(time.Hour).UTC(),
		},
	}}
}

func TestCreateWithEmail(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	account, err := s.Create(ctx, models.CreateInput{Email: &models.CreateWithEmail{Email: "Someone@Example.com", Timezone: "Africa/Khartoum"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(account.ID) != 16 {
		t.Errorf("account id %q is not 16 chars", account.ID)
	}
	if account.Email == nil || *account.Email != "someone@example.com" {
		t.Errorf("email not normalized: %+v", account.Email)
	}
	if account.Phone != nil {
		t.Errorf("phone should be nil, got %q", *account.Phone)
	}
	if account.Config.Timezone != "Africa/Khartoum" {
		t.Errorf("config timezone = %q", account.Config.Timezone)
	}

	got, err := s.GetByEmail(ctx, "SOMEONE@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != account.ID {
		t.Fatalf("lookup returned %+v, want id %s", got, account.ID)
	}
}

func TestCreateWithPhoneLookups(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	account, err := s.Create(ctx, models.CreateInput{Phone: &models.CreateWithPhone{Phone: "+15551234", Timezone: "UTC"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if account.Phone == nil || *account.Phone != "+15551234" {
		t.Fatalf("phone = %+v", account.Phone)
	}
	if account.Email != nil {
		t.Errorf("email should be nil, got %q", *account.Email)
	}

	byPhone, err := s.GetByPhone(ctx, "+15551234")
	if err != nil || byPhone == nil || byPhone.ID != account.ID {
		t.Fatalf("get by phone: %+v, %v", byPhone, err)
	}
	byEmail, err := s.GetByEmail(ctx, "+15551234")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail != nil {
		t.Fatalf("phone must not be reachable via email lookup, got %+v", byEmail)
	}
}

func TestCreateRejectsMalformedUnion(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	cases := []models.CreateInput{
		{},
		{Email: &models.CreateWithEmail{Email: "a@b.c", Timezone: "UTC"}, Phone: &models.CreateWithPhone{Phone: "+1", Timezone: "UTC"}},
		{Email: &models.CreateWithEmail{Email: "", Timezone: "UTC"}},
		{Google: &models.CreateWithGoogle{Email: "a@b.c", Timezone: "UTC"}},
	}
	for idx, input := range cases {
		if _, err := s.Create(ctx, input); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("case %d: got %v, want invalid_input", idx, err)
		}
	}
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	if _, err := s.Create(ctx, models.CreateInput{Email: &models.CreateWithEmail{Email: "dup@example.com", Timezone: "UTC"}}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.Create(ctx, models.CreateInput{Email: &models.CreateWithEmail{Email: "dup@example.com", Timezone: "UTC"}})
	if !errors.Is(err, apperr.ErrAccountConflict) {
		t.Fatalf("second create: got %v, want account_conflict", err)
	}
}

func TestCreateWithGoogleMakesLink(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	account, err := s.Create(ctx, googleInput("g@example.com", "sub-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(account.ProviderLinks) != 1 {
		t.Fatalf("provider links = %d, want 1", len(account.ProviderLinks))
	}

	got, err := s.GetByProvider(ctx, models.ProviderGoogle, "sub-1")
	if err != nil || got == nil {
		t.Fatalf("get by provider: %+v, %v", got, err)
	}
	if got.ID != account.ID {
		t.Errorf("provider lookup returned account %s, want %s", got.ID, account.ID)
	}
	if got.GoogleID() != "sub-1" {
		t.Errorf("google id = %q", got.GoogleID())
	}

	missing, err := s.GetByProvider(ctx, models.ProviderGoogle, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing provider lookup: %+v, %v", missing, err)
	}
}

func TestGetManyByProvider(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	linked, err := s.Create(ctx, googleInput("linked@example.com", "sub-linked"))
	if err != nil {
		t.Fatalf("create linked: %v", err)
	}
	emailOnly, err := s.Create(ctx, models.CreateInput{Email: &models.CreateWithEmail{Email: "plain@example.com", Timezone: "UTC"}})
	if err != nil {
		t.Fatalf("create email-only: %v", err)
	}

	// provider id only
	matches, err := s.GetManyByProvider(ctx, models.ProviderGoogle, "sub-linked", "")
	if err != nil || len(matches) != 1 || matches[0].ID != linked.ID {
		t.Fatalf("provider-only matches: %+v, %v", matches, err)
	}

	// email only
	matches, err = s.GetManyByProvider(ctx, models.ProviderGoogle, "unknown-sub", "plain@example.com")
	if err != nil || len(matches) != 1 || matches[0].ID != emailOnly.ID {
		t.Fatalf("email-only matches: %+v, %v", matches, err)
	}

	// both match distinct accounts: the ambiguous case
	matches, err = s.GetManyByProvider(ctx, models.ProviderGoogle, "sub-linked", "plain@example.com")
	if err != nil {
		t.Fatalf("ambiguous: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("ambiguous matches = %d, want 2", len(matches))
	}

	// same account on both sides must not be duplicated
	matches, err = s.GetManyByProvider(ctx, models.ProviderGoogle, "sub-linked", "linked@example.com")
	if err != nil || len(matches) != 1 {
		t.Fatalf("self-overlap matches: %+v, %v", matches, err)
	}

	// no match at all: empty, not an error
	matches, err = s.GetManyByProvider(ctx, models.ProviderGoogle, "unknown-sub", "")
	if err != nil || len(matches) != 0 {
		t.Fatalf("no-match: %+v, %v", matches, err)
	}
}

func TestUpdateProviderTokensRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	account, err := s.Create(ctx, googleInput("rt@example.com", "sub-rt"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	expires := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)
	for round := 0; round < 3; round++ {
		err := s.UpdateProviderTokens(ctx, models.UpdateProviderInput{
			AccountID:    account.ID,
			Provider:     models.ProviderGoogle,
			ProviderID:   "sub-rt",
			AccessToken:  "access-final",
			RefreshToken: "refresh-final",
			ExpiresAt:    expires,
		})
		if err != nil {
			t.Fatalf("round %d upsert: %v", round, err)
		}
	}

	got, err := s.GetByProvider(ctx, models.ProviderGoogle, "sub-rt")
	if err != nil || got == nil {
		t.Fatalf("reload: %+v, %v", got, err)
	}
	if len(got.ProviderLinks) != 1 {
		t.Fatalf("links after upserts = %d, want 1", len(got.ProviderLinks))
	}
	link := got.ProviderLinks[0]
	if link.AccessToken != "access-final" || link.RefreshToken != "refresh-final" {
		t.Errorf("tokens = %q/%q, want last written", link.AccessToken, link.RefreshToken)
	}
	if !link.ExpiresAt.UTC().Truncate(time.Second).Equal(expires) {
		t.Errorf("expires = %v, want %v", link.ExpiresAt, expires)
	}
}

func TestUpdateProviderTokensCreatesMissingLink(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	account, err := s.Create(ctx, models.CreateInput{Email: &models.CreateWithEmail{Email: "late@example.com", Timezone: "UTC"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	err = s.UpdateProviderTokens(ctx, models.UpdateProviderInput{
		AccountID:    account.ID,
		Provider:     models.ProviderGoogle,
		ProviderID:   "sub-late",
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetByProvider(ctx, models.ProviderGoogle, "sub-late")
	if err != nil || got == nil || got.ID != account.ID {
		t.Fatalf("link not created: %+v, %v", got, err)
	}
}

func TestTokensEncryptedAtRest(t *testing.T) {
	s, db := newTestStore(t, "test-encryption-key")
	ctx := context.Background()

	account, err := s.Create(ctx, googleInput("enc@example.com", "sub-enc"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var raw models.ProviderLink
	if err := db.Where("account_id = ?", account.ID).First(&raw).Error; err != nil {
		t.Fatalf("raw load: %v", err)
	}
	if !s.crypto.IsEncrypted(raw.AccessToken) || !s.crypto.IsEncrypted(raw.RefreshToken) {
		t.Fatalf("token columns not encrypted at rest: %q", raw.AccessToken)
	}

	got, err := s.GetByProvider(ctx, models.ProviderGoogle, "sub-enc")
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ProviderLinks[0].AccessToken != "at-sub-enc" {
		t.Errorf("decrypted access token = %q", got.ProviderLinks[0].AccessToken)
	}
}

func TestOtpSecretAndVerified(t *testing.T) {
	s, _ := newTestStore(t, "test-encryption-key")
	ctx := context.Background()

	account, err := s.Create(ctx, models.CreateInput{Phone: &models.CreateWithPhone{Phone: "+249912345678", Timezone: "UTC"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetOtpSecret(ctx, account.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set otp secret: %v", err)
	}
	if err := s.MarkVerified(ctx, account.ID); err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	got, err := s.GetByID(ctx, account.ID)
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Config.OtpSecret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("otp secret = %q", got.Config.OtpSecret)
	}
	if !got.Config.Verified {
		t.Error("account not marked verified")
	}

	if err := s.SetOtpSecret(ctx, "missing-account", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing account: got %v, want not_found", err)
	}
}
