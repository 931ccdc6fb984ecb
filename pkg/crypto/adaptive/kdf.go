package adaptive

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands an operator secret into a KeySize key.
// purpose separates keys derived from the same secret.
func DeriveKey(secret []byte, purpose string) []byte {
	r := hkdf.New(sha256.New, secret, nil, []byte("tokguard/"+purpose))
	key := make([]byte, KeySize)
	// hkdf only fails past 255*HashLen bytes of output.
	_, _ = io.ReadFull(r, key)
	return key
}
