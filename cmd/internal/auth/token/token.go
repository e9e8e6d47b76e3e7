// Package token issues and verifies the short-lived bearer tokens handed out
// by POST /token.
//
// Tokens are compact HS256 JWTs carrying only a subject (user id) and an
// expiry. They are stateless: no persistence, no revocation.
package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the minimal identity envelope bound into a bearer token.
type Claims struct {
	Subject   int64
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Manager signs and verifies bearer tokens with a process-wide symmetric
// secret. The secret is read-only after construction.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewManager validates config and builds a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, ErrSecretTooShort
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl:    ttl,
	}, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a signed token for userID expiring at now+TTL.
func (m *Manager) Issue(userID int64, now time.Time) (string, time.Time, error) {
	if userID <= 0 {
		return "", time.Time{}, fmt.Errorf("token: invalid subject %d", userID)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exp := now.Add(m.ttl)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and extracts the bound subject.
// Every failure mode collapses to ErrInvalidToken; callers must not be able
// to tell a bad signature from an expired token.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rc jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &rc,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if m.issuer != "" && rc.Issuer != m.issuer {
		return Claims{}, ErrInvalidToken
	}

	sub, err := strconv.ParseInt(rc.Subject, 10, 64)
	if err != nil || sub <= 0 {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{Subject: sub}
	if rc.ExpiresAt != nil {
		out.ExpiresAt = rc.ExpiresAt.Time
	}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time
	}
	return out, nil
}
