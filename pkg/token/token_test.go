package token

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tok, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(tok) != EncodedLen(DefaultLength) {
		t.Errorf("Generate() length = %d, want %d", len(tok), EncodedLen(DefaultLength))
	}

	decoded, err := Decode(tok)
	if err != nil {
		t.Fatalf("Generate() returned invalid base64: %v", err)
	}
	if len(decoded) != DefaultLength {
		t.Errorf("Generate() decoded length = %d, want %d", len(decoded), DefaultLength)
	}

	if strings.ContainsAny(tok, "+/=") {
		t.Errorf("Generate() = %q, want URL-safe alphabet without padding", tok)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("Generate() produced duplicate token after %d draws", i)
		}
		seen[tok] = struct{}{}
	}
}

func TestGenerateWithLength(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"16 bytes rejected", 16, true},
		{"31 bytes rejected", 31, true},
		{"32 bytes", 32, false},
		{"48 bytes", 48, false},
		{"64 bytes", 64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := GenerateWithLength(tt.length)
			if tt.wantErr {
				if !errors.Is(err, ErrTooShort) {
					t.Fatalf("GenerateWithLength(%d) error = %v, want ErrTooShort", tt.length, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateWithLength(%d) error = %v", tt.length, err)
			}
			decoded, err := Decode(tok)
			if err != nil {
				t.Fatalf("GenerateWithLength(%d) returned invalid base64: %v", tt.length, err)
			}
			if len(decoded) != tt.length {
				t.Errorf("GenerateWithLength(%d) decoded length = %d", tt.length, len(decoded))
			}
		})
	}
}

func TestGenerateFrom_Deterministic(t *testing.T) {
	src := bytes.Repeat([]byte{0xAB}, 64)

	a, err := GenerateFrom(bytes.NewReader(src), 32)
	if err != nil {
		t.Fatalf("GenerateFrom() error = %v", err)
	}
	b, err := GenerateFrom(bytes.NewReader(src), 32)
	if err != nil {
		t.Fatalf("GenerateFrom() error = %v", err)
	}
	if a != b {
		t.Errorf("GenerateFrom() with same input = %q and %q", a, b)
	}
}

func TestGenerateFrom_ShortReader(t *testing.T) {
	_, err := GenerateFrom(bytes.NewReader(make([]byte, 10)), 32)
	if err == nil {
		t.Fatal("GenerateFrom() with exhausted reader should fail")
	}
}

func TestEqual(t *testing.T) {
	tok, _ := Generate()

	tests := []struct {
		name      string
		submitted string
		expected  string
		want      bool
	}{
		{"match", tok, tok, true},
		{"mismatch", tok + "x", tok, false},
		{"prefix", tok[:10], tok, false},
		{"empty submitted", "", tok, false},
		{"empty expected", tok, "", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.submitted, tt.expected); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("some-token")
	if len(fp) != 12 {
		t.Errorf("Fingerprint() length = %d, want 12", len(fp))
	}
	if fp != Fingerprint("some-token") {
		t.Error("Fingerprint() is not deterministic")
	}
	if fp == Fingerprint("other-token") {
		t.Error("Fingerprint() collided for different inputs")
	}
	if Fingerprint("") != "" {
		t.Error("Fingerprint(\"\") should be empty")
	}
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Generate()
	}
}

func BenchmarkEqual(b *testing.B) {
	tok, _ := Generate()
	other := tok[:len(tok)-1] + "A"
	for i := 0; i < b.N; i++ {
		Equal(other, tok)
	}
}
