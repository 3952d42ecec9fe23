// Package ident generates the opaque identifiers and secrets used across
// the service: fixed-length account ids and high-entropy token material.
package ident

import (
	"crypto/rand"
)

const (
	// IDLength is the length of an account id. It is pinned by the
	// accounts.id char(16) column and must not change.
	IDLength = 16

	// SecretLength is the length of generated secrets (refresh tokens,
	// api keys).
	SecretLength = 32
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// New returns a 16-character crypto-random identifier.
func New() string {
	return random(IDLength)
}

// NewSecret returns a 32-character crypto-random secret.
func NewSecret() string {
	return random(SecretLength)
}

// random draws n characters from the alphabet using rejection sampling so
// every character is uniformly distributed. The randomness source being
// unavailable is unrecoverable.
func random(n int) string {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	// values >= limit would bias the modulo and are redrawn
	limit := byte(256 - 256%len(alphabet))
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic("ident: randomness source unavailable: " + err.Error())
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
