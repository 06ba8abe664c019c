package vault

import (
	"errors"
	"strings"
	"testing"
)

func TestSealOpen(t *testing.T) {
	key := KeyFromPassphrase("correct horse battery staple")
	plaintext := []byte(`{"access_token":"eyJhbGciOi"}`)

	sealed, err := Seal(plaintext, key)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if strings.Contains(sealed, "eyJ") {
		t.Fatal("Sealed output leaks plaintext")
	}

	opened, err := Open(sealed, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(opened) != string(plaintext) {
		t.Errorf("Expected %s, got %s", plaintext, opened)
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	sealed, err := Seal([]byte("Secret message"), KeyFromPassphrase("one"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	_, err = Open(sealed, KeyFromPassphrase("two"))
	if !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Expected ErrOpenFailed, got %v", err)
	}
}

func TestInvalidKeySize(t *testing.T) {
	if _, err := Seal([]byte("test"), []byte("shortkey")); err == nil {
		t.Fatal("Seal should fail with an invalid key size")
	}
}

func TestOpenMalformed(t *testing.T) {
	key := KeyFromPassphrase("k")
	if _, err := Open("zz-not-hex", key); err == nil {
		t.Error("Open should reject non-hex input")
	}
	if _, err := Open("abcd", key); !errors.Is(err, ErrSealedTooShort) {
		t.Errorf("Expected ErrSealedTooShort, got %v", err)
	}
}

func TestKeyFromPassphraseIsStable(t *testing.T) {
	a, b := KeyFromPassphrase("same"), KeyFromPassphrase("same")
	if len(a) != 32 || string(a) != string(b) {
		t.Error("Derived keys should be 32 bytes and deterministic")
	}
}
