// Package keygen generates and parses orchard API keys.
package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/suanview/orchard/internal/domain"
	"golang.org/x/crypto/blake2b"
)

// Key defaults used by orchardctl when no flags are given.
const (
	DefaultKeyType = "sk"
	DefaultService = "orchard"
	DefaultVersion = "v1"
)

const shortTokenLen = 12

// APIKeyParts represents the components of an API key.
type APIKeyParts struct {
	KeyType    string // "sk" for staff keys, "dk" for dashboard keys
	Service    string // "orchard"
	Version    string // "v1"
	ShortToken string // 12 hex chars from the BLAKE2b hash of the secret, used for lookup
	LongSecret string // 43 chars base64url
	FullKey    string
}

// GenerateAPIKey creates a new API key of the form
// {key_type}-{service}-{version}-{short_token}-{long_secret}
// e.g. sk-orchard-v1-a3f5d8c2b4e6-8h3k2jf9s7d6f5g4h3j2k1m0n9p8q7r6s5t4u3v2w1x
func GenerateAPIKey(keyType, service, version string) (*APIKeyParts, error) {
	for _, part := range []string{keyType, service, version} {
		if part == "" || strings.Contains(part, "-") {
			return nil, fmt.Errorf("%w: prefix part %q", domain.ErrInvalidAPIKeyFormat, part)
		}
	}

	longBytes := make([]byte, 32)
	if _, err := rand.Read(longBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	longSecret := base64.RawURLEncoding.EncodeToString(longBytes)

	// 48 bits of a 256-bit hash; short_token carries a unique index so collisions fail loudly.
	hash := blake2b.Sum256([]byte(longSecret))
	shortToken := hex.EncodeToString(hash[:shortTokenLen/2])

	return &APIKeyParts{
		KeyType:    keyType,
		Service:    service,
		Version:    version,
		ShortToken: shortToken,
		LongSecret: longSecret,
		FullKey:    strings.Join([]string{keyType, service, version, shortToken, longSecret}, "-"),
	}, nil
}

// ParseAPIKey splits an API key into its components.
// The long secret is base64url and may itself contain '-', so only the first four separators count.
func ParseAPIKey(apiKey string) (*APIKeyParts, error) {
	parts := strings.SplitN(strings.TrimSpace(apiKey), "-", 5)
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: expected 5 parts, got %d", domain.ErrInvalidAPIKeyFormat, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: part %d is empty", domain.ErrInvalidAPIKeyFormat, i)
		}
	}
	if !isShortToken(parts[3]) {
		return nil, fmt.Errorf("%w: malformed short token", domain.ErrInvalidAPIKeyFormat)
	}

	return &APIKeyParts{
		KeyType:    parts[0],
		Service:    parts[1],
		Version:    parts[2],
		ShortToken: parts[3],
		LongSecret: parts[4],
		FullKey:    apiKey,
	}, nil
}

func isShortToken(s string) bool {
	if len(s) != shortTokenLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// GetDisplayKey returns the key with its secret masked, e.g. "sk-orchard-v1-a3f5d8c2b4e6-****".
func (k *APIKeyParts) GetDisplayKey() string {
	return fmt.Sprintf("%s-%s-%s-%s-****", k.KeyType, k.Service, k.Version, k.ShortToken)
}

// HashSecret computes the hex-encoded BLAKE2b-256 hash of the secret.
func HashSecret(secret string) string {
	hash := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])
}

// MaskAPIKey returns a safe-to-log version of an API key showing only the key type.
func MaskAPIKey(apiKey string) string {
	parts, err := ParseAPIKey(apiKey)
	if err != nil {
		return "***"
	}
	return parts.KeyType + "-***"
}
