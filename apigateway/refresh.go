package gateway

import (
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/goccy/go-json"

	"github.com/adonese/accountd/apperr"
	"github.com/adonese/accountd/ident"
	"github.com/adonese/accountd/models"
)

const refreshPrefix = "refresh:"

// sessionRecord is what a refresh token points at in redis.
type sessionRecord struct {
	AccountID string    `json:"account_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// RefreshStore keeps opaque refresh tokens in redis. A token is valid for
// exactly as long as its key lives; deleting the key revokes it.
type RefreshStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

// NewRefreshStore builds a RefreshStore with the configured lifetime.
func NewRefreshStore(client *redis.Client, cfg models.Config) *RefreshStore {
	ttl := time.Duration(cfg.RefreshTokenDays) * 24 * time.Hour
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RefreshStore{Redis: client, TTL: ttl}
}

// Issue mints an opaque refresh token bound to the account.
func (r *RefreshStore) Issue(accountID string) (string, error) {
	token := ident.NewSecret()
	payload, err := json.Marshal(sessionRecord{AccountID: accountID, IssuedAt: time.Now().UTC()})
	if err != nil {
		return "", apperr.Wrap(err, apperr.ErrInternal, "encode session record")
	}
	if err := r.Redis.Set(refreshPrefix+token, payload, r.TTL).Err(); err != nil {
		return "", apperr.Wrap(err, apperr.ErrInternal, "store refresh token")
	}
	return token, nil
}

// Validate resolves a refresh token to its account id. Expired and
// revoked tokens are indistinguishable: the key is simply gone.
func (r *RefreshStore) Validate(token string) (string, error) {
	if token == "" {
		return "", apperr.WithMessage(apperr.ErrInvalidToken, "empty refresh token")
	}
	payload, err := r.Redis.Get(refreshPrefix + token).Result()
	if err == redis.Nil {
		return "", apperr.WithMessage(apperr.ErrInvalidToken, "refresh token expired or revoked")
	}
	if err != nil {
		return "", apperr.Wrap(err, apperr.ErrInternal, "load refresh token")
	}
	var record sessionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return "", apperr.Wrap(err, apperr.ErrInvalidToken, "corrupt session record")
	}
	if record.AccountID == "" {
		return "", apperr.WithMessage(apperr.ErrInvalidToken, "corrupt session record")
	}
	return record.AccountID, nil
}

// Revoke deletes the token. Revoking an unknown token is a no-op.
func (r *RefreshStore) Revoke(token string) error {
	if err := r.Redis.Del(refreshPrefix + token).Err(); err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "revoke refresh token")
	}
	return nil
}
