package store

import "testing"

func TestFieldCryptoRoundTrip(t *testing.T) {
	c, err := newFieldCrypto("some key")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	enc, err := c.Encrypt("ya29.access-token")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !c.IsEncrypted(enc) {
		t.Fatalf("missing prefix: %q", enc)
	}
	// double-encrypt is a no-op
	again, err := c.Encrypt(enc)
	if err != nil || again != enc {
		t.Fatalf("re-encrypt changed value: %q vs %q (%v)", again, enc, err)
	}
	plain, err := c.Decrypt(enc)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "ya29.access-token" {
		t.Fatalf("round trip = %q", plain)
	}
}

func TestFieldCryptoDisabled(t *testing.T) {
	c, err := newFieldCrypto("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c != nil {
		t.Fatal("empty key should disable crypto")
	}
	out, err := c.Encrypt("plain")
	if err != nil || out != "plain" {
		t.Fatalf("nil crypto must pass through, got %q (%v)", out, err)
	}
}

func TestFieldCryptoRejectsGarbage(t *testing.T) {
	c, err := newFieldCrypto("some key")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.Decrypt("enc:not-base64"); err == nil {
		t.Fatal("garbage payload must not decrypt")
	}
}
