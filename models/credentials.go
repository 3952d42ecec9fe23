package models

import "time"

// Credentials is the access/refresh token pair issued after a successful
// authentication. ExpiresAt is the access token expiry; the refresh token
// carries its own, longer lifetime.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
