// Package models holds the database entities and shared configuration of
// accountd. It should be kept simple and only contain the fields that are
// needed.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// SignInProvider enumerates the supported external identity providers.
type SignInProvider string

const (
	ProviderGoogle SignInProvider = "GOOGLE"
)

// Account is the canonical identity record for one user. Email and phone
// are pointers so that absent values stay NULL and do not collide in the
// unique indexes.
type Account struct {
	ID        string    `json:"id" gorm:"primaryKey;size:16"`
	Email     *string   `json:"email,omitempty" gorm:"size:150;uniqueIndex:idx_account_email"`
	Phone     *string   `json:"phone,omitempty" gorm:"size:25;uniqueIndex:idx_account_phone"`
	CreatedAt time.Time `json:"created_at"`

	Config        AccountConfig  `json:"config" gorm:"foreignKey:AccountID"`
	ProviderLinks []ProviderLink `json:"-" gorm:"foreignKey:AccountID"`
}

// AccountConfig holds per-account settings. It is created in the same
// transaction as its account and lives and dies with it.
type AccountConfig struct {
	AccountID string `json:"account_id" gorm:"primaryKey;size:16"`
	Timezone  string `json:"timezone" gorm:"size:64"`
	// OtpSecret is the TOTP secret used for phone verification codes.
	// Stored encrypted at rest.
	OtpSecret string    `json:"-" gorm:"size:256"`
	Verified  bool      `json:"verified" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProviderLink binds one external identity to an account and caches the
// provider tokens obtained on the last code exchange. Token columns are
// encrypted at rest.
type ProviderLink struct {
	gorm.Model
	AccountID    string         `json:"account_id" gorm:"size:16;not null;index;uniqueIndex:idx_link_owner,priority:1"`
	Provider     SignInProvider `json:"provider" gorm:"size:32;not null;uniqueIndex:idx_provider_subject,priority:1;uniqueIndex:idx_link_owner,priority:2"`
	ProviderID   string         `json:"provider_id" gorm:"size:191;not null;uniqueIndex:idx_provider_subject,priority:2;uniqueIndex:idx_link_owner,priority:3"`
	AccessToken  string         `json:"-" gorm:"size:2048"`
	RefreshToken string         `json:"-" gorm:"size:2048"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

// GoogleID returns the google subject linked to the account, if any.
func (a *Account) GoogleID() string {
	for _, link := range a.ProviderLinks {
		if link.Provider == ProviderGoogle {
			return link.ProviderID
		}
	}
	return ""
}

// NormalizeEmail lower-cases and trims an email so lookups and uniqueness
// behave the same regardless of how the caller spelled it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone trims a phone number; it is otherwise stored verbatim.
func NormalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}
