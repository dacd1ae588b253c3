package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/target/onboard-ui/internal/cryptoutil"
)

// CreateSealer creates the AES-GCM sealer for the SSO flow cookie.
// A 64 character hex key is decoded; a raw or base64 32 byte key is used as is;
// anything else is hashed to 32 bytes. An empty key is only allowed in dev mode,
// where a random key is generated and flows do not survive a restart.
//
//nolint:ireturn // Returning interface is intentional for sealer abstraction
func CreateSealer(key string, isDev bool, logger *slog.Logger) (cryptoutil.Sealer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		if !isDev {
			return nil, errors.New("cookie sealing key is required")
		}
		logger.Warn("cookie sealing key is empty, using a random key")
		random, err := cryptoutil.RandomKey()
		if err != nil {
			return nil, err
		}
		return cryptoutil.NewAESGCMSealer(random)
	}
	return cryptoutil.NewAESGCMSealer(deriveKey(key))
}

func deriveKey(key string) []byte {
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == cryptoutil.KeySize {
		return decoded
	}
	if parsed, err := cryptoutil.ParseKey(key); err == nil {
		return parsed
	}
	hash := sha256.Sum256([]byte(key))
	return hash[:]
}
