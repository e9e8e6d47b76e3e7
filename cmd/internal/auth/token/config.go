package token

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// SecretEnvKey is the env var holding the signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "PATCH_TOKEN_SECRET"

	// MinSecretBytes is the minimum accepted secret length. Bytes, not
	// runes, because the key is used as raw bytes.
	MinSecretBytes = 32

	// DefaultTTL is the default token lifetime.
	DefaultTTL = 30 * time.Minute
)

var (
	ErrSecretMissing  = errors.New("token secret missing")
	ErrSecretTooShort = errors.New("token secret too short")
	ErrInvalidToken   = errors.New("invalid token")
)

// Config controls token signing and verification.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// FromEnv loads token config.
//
// Env surface:
// - PATCH_TOKEN_SECRET (required, >= 32 bytes)
// - PATCH_TOKEN_ISSUER (default "patch")
// - PATCH_TOKEN_TTL    (default 30m)
//
// Fail-fast is intentional: silently falling back to a weak or default
// secret in production is unacceptable.
func FromEnv() (Config, error) {
	raw := strings.TrimSpace(os.Getenv(SecretEnvKey))
	if raw == "" {
		return Config{}, ErrSecretMissing
	}
	if len(raw) < MinSecretBytes {
		return Config{}, ErrSecretTooShort
	}

	cfg := Config{
		Secret: []byte(raw),
		Issuer: "patch",
		TTL:    DefaultTTL,
	}

	if v := strings.TrimSpace(os.Getenv("PATCH_TOKEN_ISSUER")); v != "" {
		cfg.Issuer = v
	}
	if v := strings.TrimSpace(os.Getenv("PATCH_TOKEN_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("PATCH_TOKEN_TTL: invalid duration %q", v)
		}
		cfg.TTL = d
	}

	return cfg, nil
}
