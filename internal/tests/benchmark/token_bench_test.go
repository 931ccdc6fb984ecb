package benchmark

import (
	"fmt"
	"testing"

	"github.com/yndnr/tokguard-go/pkg/token"
)

// BenchmarkTokenGenerate benchmarks token generation at several sizes.
func BenchmarkTokenGenerate(b *testing.B) {
	for _, n := range []int{32, 48, 64} {
		b.Run(fmt.Sprintf("bytes_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := token.GenerateWithLength(n); err != nil {
					b.Fatalf("Generate failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkTokenEqual compares matching and mismatching tokens. The two
// cases should report the same time per op.
func BenchmarkTokenEqual(b *testing.B) {
	tok, _ := token.Generate()
	other, _ := token.Generate()
	prefix := tok[:len(tok)-1] + "x"

	cases := []struct {
		name      string
		submitted string
	}{
		{"match", tok},
		{"mismatch_first_byte", other},
		{"mismatch_last_byte", prefix},
		{"length_differs", tok + "x"},
	}

	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				token.Equal(c.submitted, tok)
			}
		})
	}
}

// BenchmarkTokenFingerprint benchmarks the log-safe token digest.
func BenchmarkTokenFingerprint(b *testing.B) {
	tok, _ := token.Generate()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		token.Fingerprint(tok)
	}
}
