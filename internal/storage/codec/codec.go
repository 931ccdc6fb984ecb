// Package codec encodes session records for byte-oriented backends.
//
// Records are JSON. When a cipher is configured the JSON is sealed with
// the session id as additional data, so a record copied under another
// key fails to open.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/pkg/crypto/adaptive"
)

// Record format markers.
const (
	formatPlain  byte = 0x01
	formatSealed byte = 0x02
)

// ErrUnknownFormat is returned for records that carry no known marker.
var ErrUnknownFormat = errors.New("codec: unknown record format")

// ErrCipherRequired is returned when a sealed record is read without a key.
var ErrCipherRequired = errors.New("codec: sealed record but no encryption key configured")

// Codec converts sessions to and from stored bytes.
type Codec struct {
	cipher *adaptive.Cipher
}

// New returns a Codec. A nil cipher stores plain JSON.
func New(cipher *adaptive.Cipher) *Codec {
	return &Codec{cipher: cipher}
}

// Sealed reports whether records are encrypted.
func (c *Codec) Sealed() bool {
	return c.cipher != nil
}

// Encode serializes sess.
func (c *Codec) Encode(sess *domain.Session) ([]byte, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}

	if c.cipher == nil {
		return append([]byte{formatPlain}, data...), nil
	}

	sealed, err := c.cipher.Seal(data, []byte(sess.ID))
	if err != nil {
		return nil, fmt.Errorf("codec: seal: %w", err)
	}
	return append([]byte{formatSealed}, sealed...), nil
}

// Decode parses a record stored under id. Every failure is wrapped in
// domain.ErrSessionUnreadable.
func (c *Codec) Decode(id string, raw []byte) (*domain.Session, error) {
	sess, err := c.decode(id, raw)
	if err != nil {
		return nil, domain.ErrSessionUnreadable.WithCause(err)
	}
	return sess, nil
}

func (c *Codec) decode(id string, raw []byte) (*domain.Session, error) {
	if len(raw) == 0 {
		return nil, ErrUnknownFormat
	}

	data := raw[1:]
	switch raw[0] {
	case formatPlain:
	case formatSealed:
		if c.cipher == nil {
			return nil, ErrCipherRequired
		}
		plain, err := c.cipher.Open(data, []byte(id))
		if err != nil {
			return nil, fmt.Errorf("codec: open: %w", err)
		}
		data = plain
	default:
		return nil, ErrUnknownFormat
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("codec: unmarshal: %w", err)
	}
	if sess.ID != id {
		return nil, fmt.Errorf("codec: record id %q stored under %q", sess.ID, id)
	}
	if sess.Values == nil {
		sess.Values = make(map[string]string)
	}
	return &sess, nil
}
