// Package cryptoutil seals small values (SSO state, flash data) into tamper-proof cookie strings.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// KeySize is the required AES-256 key length.
const KeySize = 32

// Versioned prefix so keys or algorithms can rotate without breaking in-flight cookies.
const sealedPrefixV1 = "v1."

// ErrInvalidSealed is returned for values that were tampered with, sealed under another
// key or name, or are not sealed at all.
var ErrInvalidSealed = errors.New("invalid sealed value")

// Sealer encrypts and authenticates values bound to a name (typically the cookie name).
type Sealer interface {
	Seal(name string, plaintext []byte) (string, error)
	Open(name, sealed string) ([]byte, error)
}

// AESGCMSealer implements Sealer using AES-256-GCM with the name as associated data.
type AESGCMSealer struct {
	aead cipher.AEAD
}

// NewAESGCMSealer constructs a sealer. Key must be 32 bytes (AES-256).
func NewAESGCMSealer(key []byte) (*AESGCMSealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aes-gcm key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCMSealer{aead: gcm}, nil
}

// ParseKey accepts a base64 (std or url, padded or not) or raw 32 byte key.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) == KeySize {
		return []byte(s), nil
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil && len(b) == KeySize {
			return b, nil
		}
	}
	return nil, fmt.Errorf("key must be %d raw bytes or their base64 encoding", KeySize)
}

// RandomKey returns a fresh key. Values sealed under it do not survive a restart.
func RandomKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal returns "v1." + base64url(nonce||ciphertext); the output is cookie-safe.
func (s *AESGCMSealer) Seal(name string, plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	buf := s.aead.Seal(nonce, nonce, plaintext, []byte(name))
	return sealedPrefixV1 + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Open reverses Seal. Any mismatch yields ErrInvalidSealed.
func (s *AESGCMSealer) Open(name, sealed string) ([]byte, error) {
	body, ok := strings.CutPrefix(sealed, sealedPrefixV1)
	if !ok {
		return nil, ErrInvalidSealed
	}
	data, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, ErrInvalidSealed
	}
	n := s.aead.NonceSize()
	if len(data) < n {
		return nil, ErrInvalidSealed
	}
	pt, err := s.aead.Open(nil, data[:n], data[n:], []byte(name))
	if err != nil {
		return nil, ErrInvalidSealed
	}
	return pt, nil
}

// SealJSON marshals v and seals it under name.
func SealJSON(s Sealer, name string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal sealed value: %w", err)
	}
	return s.Seal(name, b)
}

// OpenJSON opens sealed and unmarshals it into T.
func OpenJSON[T any](s Sealer, name, sealed string) (T, error) {
	var out T
	b, err := s.Open(name, sealed)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, ErrInvalidSealed
	}
	return out, nil
}
