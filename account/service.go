// Package account implements accountd's authentication core: the
// create-or-find rules per sign-in channel, the Google code-exchange
// decision tree, token refresh and caller identity resolution.
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"

	"github.com/adonese/accountd/apperr"
	"github.com/adonese/accountd/models"
)

// Service is the account orchestrator. Collaborators are injected so
// tests can swap the provider or issuer for fakes.
type Service struct {
	Store  Store
	Google OAuthProvider
	Issuer Issuer
	SMS    SMSSender
	Logger *logrus.Logger
	Config models.Config
}

// CreateFromEmailProvider registers an identity by email. Calling it
// twice with the same email is a no-op: the existing account is the
// answer and no credentials are issued by this path.
func (s *Service) CreateFromEmailProvider(ctx context.Context, i CreateWithEmailInput) error {
	email := models.NormalizeEmail(i.Email)
	if email == "" {
		return apperr.WithMessage(apperr.ErrInvalidInput, "email is required")
	}
	existing, err := s.Store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		s.Logger.WithField("account_id", existing.ID).Debug("email already registered")
		return nil
	}
	account, err := s.Store.Create(ctx, models.CreateInput{
		Email: &models.CreateWithEmail{Email: email, Timezone: s.timezone(i.Timezone)},
	})
	if err != nil {
		return err
	}
	signupsTotal.WithLabelValues("email").Inc()
	s.Logger.WithFields(logrus.Fields{"account_id": account.ID, "channel": "email"}).Info("account created")
	return nil
}

// CreateFromPhoneProvider registers an identity by phone, provisions its
// verification secret and sends the code when an SMS sender is wired.
// Repeating the call for an unverified phone re-sends a fresh code, so a
// user who missed the validity window registers again to get a new one.
func (s *Service) CreateFromPhoneProvider(ctx context.Context, i CreateWithPhoneInput) error {
	phone := models.NormalizePhone(i.Phone)
	if phone == "" {
		return apperr.WithMessage(apperr.ErrInvalidInput, "phone is required")
	}
	existing, err := s.Store.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if existing != nil {
		s.Logger.WithField("account_id", existing.ID).Debug("phone already registered")
		if !existing.Config.Verified {
			if err := s.sendVerificationCode(ctx, existing.ID, phone); err != nil {
				s.Logger.WithField("account_id", existing.ID).Warnf("otp delivery failed: %v", err)
			}
		}
		return nil
	}
	account, err := s.Store.Create(ctx, models.CreateInput{
		Phone: &models.CreateWithPhone{Phone: phone, Timezone: s.timezone(i.Timezone)},
	})
	if err != nil {
		return err
	}
	signupsTotal.WithLabelValues("phone").Inc()
	s.Logger.WithFields(logrus.Fields{"account_id": account.ID, "channel": "phone"}).Info("account created")

	if err := s.sendVerificationCode(ctx, account.ID, phone); err != nil {
		// registration stands; the code can be re-requested
		s.Logger.WithField("account_id", account.ID).Warnf("otp delivery failed: %v", err)
	}
	return nil
}

// CreateFromGoogleProvider exchanges an authorization code and either
// creates an account, links into an existing one, or rejects an
// ambiguous identity. The exchange happens before any transaction so the
// provider's latency never holds a lock.
func (s *Service) CreateFromGoogleProvider(ctx context.Context, i CreateWithGoogleInput) (*AuthOutput, error) {
	if i.Code == "" {
		return nil, apperr.WithMessage(apperr.ErrInvalidInput, "code is required")
	}
	tokens, err := s.Google.ExchangeCode(ctx, i.Code, i.OriginURL)
	if err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(tokens.Email)

	matches, err := s.Store.GetManyByProvider(ctx, models.ProviderGoogle, tokens.ProviderID, email)
	if err != nil {
		return nil, err
	}

	var account *models.Account
	isFirstAccess := false
	switch len(matches) {
	case 0:
		account, err = s.Store.Create(ctx, models.CreateInput{
			Google: &models.CreateWithGoogle{
				Email:    email,
				Timezone: s.timezone(i.Timezone),
				Google: models.GoogleData{
					ID:           tokens.ProviderID,
					AccessToken:  tokens.AccessToken,
					RefreshToken: tokens.RefreshToken,
					ExpiresAt:    tokens.ExpiresAt,
				},
			},
		})
		if err != nil {
			return nil, err
		}
		isFirstAccess = true
		signupsTotal.WithLabelValues("google").Inc()
		s.Logger.WithFields(logrus.Fields{"account_id": account.ID, "channel": "google"}).Info("account created")
	case 1:
		account = &matches[0]
		err = s.Store.UpdateProviderTokens(ctx, models.UpdateProviderInput{
			AccountID:    account.ID,
			Provider:     models.ProviderGoogle,
			ProviderID:   tokens.ProviderID,
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresAt:    tokens.ExpiresAt,
		})
		if err != nil {
			return nil, err
		}
	default:
		// provider id bound to one account, email to another. Picking
		// either silently would hand the account to whoever controls
		// the colliding email, so this is always an error.
		conflictsTotal.Inc()
		s.Logger.WithFields(logrus.Fields{
			"provider_id": tokens.ProviderID,
			"matches":     len(matches),
		}).Warn("google identity resolves to multiple accounts")
		return nil, apperr.ErrAccountConflict
	}

	creds, err := s.Issuer.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	signinsTotal.WithLabelValues("google").Inc()
	return &AuthOutput{
		AccessToken:   creds.AccessToken,
		RefreshToken:  creds.RefreshToken,
		ExpiresAt:     creds.ExpiresAt,
		IsFirstAccess: isFirstAccess,
	}, nil
}

// ExchangeCode re-exchanges a fresh code for a specific account, the
// re-consent flow. The configured redirect URL is used for the exchange.
func (s *Service) ExchangeCode(ctx context.Context, i ExchangeCodeInput) (*AuthOutput, error) {
	if i.Code == "" {
		return nil, apperr.WithMessage(apperr.ErrInvalidInput, "code is required")
	}
	account, err := s.Store.GetByID(ctx, i.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.WithMessage(apperr.ErrNotFound, "account not found")
	}
	tokens, err := s.Google.ExchangeCode(ctx, i.Code, "")
	if err != nil {
		return nil, err
	}
	err = s.Store.UpdateProviderTokens(ctx, models.UpdateProviderInput{
		AccountID:    account.ID,
		Provider:     models.ProviderGoogle,
		ProviderID:   tokens.ProviderID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	creds, err := s.Issuer.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	signinsTotal.WithLabelValues("exchange").Inc()
	return &AuthOutput{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt,
	}, nil
}

// RefreshToken validates a refresh token and issues a new access token.
// The refresh token itself is not rotated.
func (s *Service) RefreshToken(ctx context.Context, i RefreshTokenInput) (*RefreshOutput, error) {
	accountID, err := s.Issuer.ValidateRefreshToken(i.RefreshToken)
	if err != nil {
		return nil, err
	}
	access, expiresAt, err := s.Issuer.IssueAccess(accountID)
	if err != nil {
		return nil, err
	}
	refreshesTotal.Inc()
	return &RefreshOutput{AccessToken: access, ExpiresAt: expiresAt}, nil
}

// Iam resolves the canonical identity of the caller.
func (s *Service) Iam(ctx context.Context, i IamInput) (*IamOutput, error) {
	if i.ID == "" {
		return nil, apperr.WithMessage(apperr.ErrUnauthenticated, "no caller identity")
	}
	account, err := s.Store.GetByID(ctx, i.ID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.WithMessage(apperr.ErrNotFound, "account not found")
	}
	return &IamOutput{ID: account.ID, GoogleID: account.GoogleID()}, nil
}

// VerifyPhone checks the code sent to a phone number, marks the account
// verified and signs the caller in.
func (s *Service) VerifyPhone(ctx context.Context, i VerifyPhoneInput) (*AuthOutput, error) {
	phone := models.NormalizePhone(i.Phone)
	if phone == "" || i.Code == "" {
		return nil, apperr.WithMessage(apperr.ErrInvalidInput, "phone and code are required")
	}
	account, err := s.Store.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.WithMessage(apperr.ErrNotFound, "account not found")
	}
	if account.Config.OtpSecret == "" {
		return nil, apperr.WithMessage(apperr.ErrInvalidToken, "no verification code issued")
	}
	if !totp.Validate(i.Code, account.Config.OtpSecret) {
		return nil, apperr.WithMessage(apperr.ErrInvalidToken, "wrong otp entered")
	}
	if err := s.Store.MarkVerified(ctx, account.ID); err != nil {
		return nil, err
	}
	creds, err := s.Issuer.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	signinsTotal.WithLabelValues("phone_otp").Inc()
	return &AuthOutput{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt,
	}, nil
}

// sendVerificationCode provisions the account's TOTP secret and delivers
// the current code over SMS.
func (s *Service) sendVerificationCode(ctx context.Context, accountID, phone string) error {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "accountd", AccountName: phone})
	if err != nil {
		return err
	}
	if err := s.Store.SetOtpSecret(ctx, accountID, key.Secret()); err != nil {
		return err
	}
	if s.SMS == nil {
		return nil
	}
	code, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		return err
	}
	return s.SMS.Send(ctx, phone, fmt.Sprintf("Your accountd verification code is %s", code))
}

func (s *Service) timezone(tz string) string {
	if tz != "" {
		return tz
	}
	if s.Config.DefaultTimezone != "" {
		return s.Config.DefaultTimezone
	}
	return "UTC"
}
