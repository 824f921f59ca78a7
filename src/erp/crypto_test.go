// backend/src/erp/crypto_test.go
package erp

import (
	"strings"
	"testing"
)

func testCipher(t *testing.T) *TokenCipher {
	t.Helper()
	c, err := NewTokenCipher([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewTokenCipher: %v", err)
	}
	return c
}

func TestTokenCipherRoundTrip(t *testing.T) {
	c := testCipher(t)

	for _, plaintext := range []string{"", "a", "an-oauth-access-token-value", strings.Repeat("x", 4096)} {
		t.Run(plaintext[:min(len(plaintext), 12)], func(t *testing.T) {
			sealed, err := c.Encrypt(plaintext)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			if sealed == plaintext && plaintext != "" {
				t.Fatal("ciphertext equals plaintext")
			}
			got, err := c.Decrypt(sealed)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if got != plaintext {
				t.Errorf("round trip mismatch: got %q want %q", got, plaintext)
			}
		})
	}
}

func TestTokenCipherNonceVariance(t *testing.T) {
	c := testCipher(t)

	first, err := c.Encrypt("same-token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	second, err := c.Encrypt("same-token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if first == second {
		t.Error("two encryptions of the same plaintext must differ (random nonce)")
	}
}

func TestTokenCipherRejectsTampering(t *testing.T) {
	c := testCipher(t)

	sealed, err := c.Encrypt("token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	tampered := "A" + sealed[1:]
	if tampered == sealed {
		tampered = "B" + sealed[1:]
	}
	if _, err := c.Decrypt(tampered); err == nil {
		t.Error("expected decryption of tampered ciphertext to fail")
	}

	if _, err := c.Decrypt("not base64 at all!!"); err == nil {
		t.Error("expected decryption of garbage input to fail")
	}
}

func TestNewTokenCipherRejectsShortKey(t *testing.T) {
	if _, err := NewTokenCipher([]byte("too-short")); err == nil {
		t.Error("expected short key to be rejected")
	}
}
