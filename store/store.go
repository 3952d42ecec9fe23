package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adonese/accountd/apperr"
	"github.com/adonese/accountd/ident"
	"github.com/adonese/accountd/models"
)

// Store implements the account repository on gorm. All read operations
// return (nil, nil) when nothing matches: absence is a normal outcome,
// not a failure.
type Store struct {
	db     *gorm.DB
	crypto *fieldCrypto
	newID  func() string
}

// New builds a Store. encryptionKey derives the at-rest cipher for
// provider tokens; pass "" to store them in the clear.
func New(db *gorm.DB, encryptionKey string) (*Store, error) {
	crypto, err := newFieldCrypto(encryptionKey)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, crypto: crypto, newID: ident.New}, nil
}

// Create allocates an id and creates the account, its config and, for
// the google arm, the initial provider link in one transaction.
func (s *Store) Create(ctx context.Context, i models.CreateInput) (*models.Account, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}

	account := models.Account{
		ID: s.newID(),
		Config: models.AccountConfig{
			Timezone: i.Timezone(),
		},
	}
	account.Config.AccountID = account.ID

	switch {
	case i.Email != nil:
		email := models.NormalizeEmail(i.Email.Email)
		account.Email = &email
	case i.Phone != nil:
		phone := models.NormalizePhone(i.Phone.Phone)
		account.Phone = &phone
	case i.Google != nil:
		email := models.NormalizeEmail(i.Google.Email)
		account.Email = &email
		access, err := s.crypto.Encrypt(i.Google.Google.AccessToken)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.ErrInternal, "encrypt provider tokens")
		}
		refresh, err := s.crypto.Encrypt(i.Google.Google.RefreshToken)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.ErrInternal, "encrypt provider tokens")
		}
		account.ProviderLinks = []models.ProviderLink{{
			AccountID:    account.ID,
			Provider:     models.ProviderGoogle,
			ProviderID:   i.Google.Google.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    i.Google.Google.ExpiresAt,
		}}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&account).Error
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, apperr.Wrap(err, apperr.ErrAccountConflict, "account identity already taken")
		}
		return nil, apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	s.hydrate(&account)
	return &account, nil
}

// GetByID loads an account with its config and provider links.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return s.first(ctx, "accounts.id = ?", id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.first(ctx, "accounts.email = ?", models.NormalizeEmail(email))
}

func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.Account, error) {
	return s.first(ctx, "accounts.phone = ?", models.NormalizePhone(phone))
}

// GetByProvider resolves the unique account linked to one provider
// identity.
func (s *Store) GetByProvider(ctx context.Context, provider models.SignInProvider, providerID string) (*models.Account, error) {
	var link models.ProviderLink
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_id = ?", provider, providerID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	return s.GetByID(ctx, link.AccountID)
}

// GetManyByProvider returns every account matching the provider identity
// or, when email is non-empty, the email. More than one result means the
// identity is ambiguous; the caller decides what that implies.
func (s *Store) GetManyByProvider(ctx context.Context, provider models.SignInProvider, providerID, email string) ([]models.Account, error) {
	cond := s.db.Where(
		"accounts.id IN (?)",
		s.db.Model(&models.ProviderLink{}).
			Select("account_id").
			Where("provider = ? AND provider_id = ?", provider, providerID),
	)
	if email = models.NormalizeEmail(email); email != "" {
		cond = cond.Or("accounts.email = ?", email)
	}

	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Preload("Config").
		Preload("ProviderLinks").
		Where(cond).
		Order("accounts.created_at").
		Find(&accounts).Error
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	for idx := range accounts {
		s.hydrate(&accounts[idx])
	}
	return accounts, nil
}

// UpdateProviderTokens upserts the link keyed by (account_id, provider,
// provider_id), overwriting the token fields on conflict.
func (s *Store) UpdateProviderTokens(ctx context.Context, i models.UpdateProviderInput) error {
	access, err := s.crypto.Encrypt(i.AccessToken)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "encrypt provider tokens")
	}
	refresh, err := s.crypto.Encrypt(i.RefreshToken)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "encrypt provider tokens")
	}
	link := models.ProviderLink{
		AccountID:    i.AccountID,
		Provider:     i.Provider,
		ProviderID:   i.ProviderID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    i.ExpiresAt,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}, {Name: "provider"}, {Name: "provider_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token", "refresh_token", "expires_at", "updated_at",
			}),
		}).
		Create(&link).Error
	if err != nil {
		if IsUniqueViolation(err) {
			return apperr.Wrap(err, apperr.ErrAccountConflict, "provider identity linked to another account")
		}
		return apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	return nil
}

// SetOtpSecret stores the phone-verification TOTP secret for an account.
func (s *Store) SetOtpSecret(ctx context.Context, accountID, secret string) error {
	enc, err := s.crypto.Encrypt(secret)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "encrypt otp secret")
	}
	res := s.db.WithContext(ctx).
		Model(&models.AccountConfig{}).
		Where("account_id = ?", accountID).
		Updates(map[string]interface{}{"otp_secret": enc, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return apperr.Wrap(res.Error, apperr.ErrDatabase, "")
	}
	if res.RowsAffected == 0 {
		return apperr.WithMessage(apperr.ErrNotFound, "account not found")
	}
	return nil
}

// MarkVerified flags the account as having completed phone verification.
func (s *Store) MarkVerified(ctx context.Context, accountID string) error {
	res := s.db.WithContext(ctx).
		Model(&models.AccountConfig{}).
		Where("account_id = ?", accountID).
		Updates(map[string]interface{}{"verified": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return apperr.Wrap(res.Error, apperr.ErrDatabase, "")
	}
	if res.RowsAffected == 0 {
		return apperr.WithMessage(apperr.ErrNotFound, "account not found")
	}
	return nil
}

func (s *Store) first(ctx context.Context, query string, args ...interface{}) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Preload("Config").
		Preload("ProviderLinks").
		Where(query, args...).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	s.hydrate(&account)
	return &account, nil
}

// hydrate decrypts sensitive columns after a load. Decryption failures
// leave the stored value in place rather than failing the read.
func (s *Store) hydrate(account *models.Account) {
	if s.crypto == nil || account == nil {
		return
	}
	if secret, err := s.crypto.Decrypt(account.Config.OtpSecret); err == nil {
		account.Config.OtpSecret = secret
	}
	for idx := range account.ProviderLinks {
		link := &account.ProviderLinks[idx]
		if access, err := s.crypto.Decrypt(link.AccessToken); err == nil {
			link.AccessToken = access
		}
		if refresh, err := s.crypto.Decrypt(link.RefreshToken); err == nil {
			link.RefreshToken = refresh
		}
	}
}
