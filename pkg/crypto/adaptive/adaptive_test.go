package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNew(t *testing.T) {
	c, err := New(testKey())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if typ := c.Type(); typ != CipherAESGCM && typ != CipherChaCha20 {
		t.Errorf("New() returned unknown cipher type: %s", typ)
	}
}

func TestNewWithType(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		typ     CipherType
		wantErr bool
	}{
		{"aes-gcm", testKey(), CipherAESGCM, false},
		{"chacha20", testKey(), CipherChaCha20, false},
		{"short key", make([]byte, 16), CipherAESGCM, true},
		{"unknown type", testKey(), CipherType("rot13"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWithType(tt.key, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWithType() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Type() != tt.typ {
				t.Errorf("Type() = %s, want %s", c.Type(), tt.typ)
			}
		})
	}
}

func TestSealOpen(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			c, err := NewWithType(testKey(), typ)
			if err != nil {
				t.Fatalf("NewWithType() error = %v", err)
			}

			plaintext := []byte(`{"_token":"abc"}`)
			aad := []byte("tgss-01HZX")

			sealed, err := c.Seal(plaintext, aad)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if len(sealed) != len(plaintext)+c.Overhead() {
				t.Errorf("sealed length = %d, want %d", len(sealed), len(plaintext)+c.Overhead())
			}
			if bytes.Contains(sealed, plaintext) {
				t.Error("sealed payload contains plaintext")
			}

			got, err := c.Open(sealed, aad)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("Open() = %q, want %q", got, plaintext)
			}

			if _, err := c.Open(sealed, []byte("tgss-other")); err == nil {
				t.Error("Open() with different aad should fail")
			}

			sealed[len(sealed)-1] ^= 0xFF
			if _, err := c.Open(sealed, aad); err == nil {
				t.Error("Open() of tampered payload should fail")
			}
		})
	}
}

func TestSeal_UniqueNonce(t *testing.T) {
	c, _ := New(testKey())
	a, _ := c.Seal([]byte("same"), nil)
	b, _ := c.Seal([]byte("same"), nil)
	if bytes.Equal(a, b) {
		t.Error("Seal() of identical input produced identical output")
	}
}

func TestOpen_TooShort(t *testing.T) {
	c, _ := New(testKey())
	if _, err := c.Open([]byte{1, 2, 3}, nil); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("Open() error = %v, want ErrCiphertextTooShort", err)
	}
}

func TestDeriveKey(t *testing.T) {
	a := DeriveKey([]byte("operator secret"), "session")
	b := DeriveKey([]byte("operator secret"), "session")
	c := DeriveKey([]byte("operator secret"), "other")

	if len(a) != KeySize {
		t.Fatalf("DeriveKey() length = %d, want %d", len(a), KeySize)
	}
	if !bytes.Equal(a, b) {
		t.Error("DeriveKey() is not deterministic")
	}
	if bytes.Equal(a, c) {
		t.Error("DeriveKey() ignored purpose")
	}
}
