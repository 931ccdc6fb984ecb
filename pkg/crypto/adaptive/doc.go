// Package adaptive seals small payloads with an AEAD cipher chosen for the
// host CPU.
//
// AES-256-GCM is used on amd64 and arm64, where Go has hardware AES;
// ChaCha20-Poly1305 elsewhere. Keys are derived from an operator secret
// with HKDF-SHA256 so any secret length can be configured.
//
// Sealed layout: nonce || ciphertext || tag.
//
//	c, err := adaptive.New(adaptive.DeriveKey(secret, "session"))
//	sealed, err := c.Seal(payload, []byte(sessionID))
//	payload, err := c.Open(sealed, []byte(sessionID))
package adaptive
