package store

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const encPrefix = "enc:"

// fieldCrypto encrypts individual sensitive columns (provider tokens, otp
// secrets) before they reach the database. A nil *fieldCrypto passes
// values through unchanged, so encryption stays optional.
type fieldCrypto struct {
	aead cipher.AEAD
}

func newFieldCrypto(key string) (*fieldCrypto, error) {
	if key == "" {
		return nil, nil
	}
	derived := sha256.Sum256([]byte("enc:" + key))
	aead, err := chacha20poly1305.NewX(derived[:])
	if err != nil {
		return nil, err
	}
	return &fieldCrypto{aead: aead}, nil
}

func (c *fieldCrypto) Encrypt(value string) (string, error) {
	if c == nil || value == "" {
		return value, nil
	}
	if strings.HasPrefix(value, encPrefix) {
		return value, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	cipherText := c.aead.Seal(nil, nonce, []byte(value), nil)
	return encPrefix + base64.RawStdEncoding.EncodeToString(nonce) + ":" + base64.RawStdEncoding.EncodeToString(cipherText), nil
}

func (c *fieldCrypto) Decrypt(value string) (string, error) {
	if c == nil || value == "" {
		return value, nil
	}
	if !strings.HasPrefix(value, encPrefix) {
		return value, nil
	}
	parts := strings.SplitN(strings.TrimPrefix(value, encPrefix), ":", 2)
	if len(parts) != 2 {
		return "", errors.New("invalid encrypted payload")
	}
	nonce, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", err
	}
	cipherText, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", err
	}
	plain, err := c.aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (c *fieldCrypto) IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encPrefix)
}
