// Package identity implements Patch's user accounts and credential handling.
//
// It contains the canonical User type, password hashing (Argon2id via
// cmd/security/password), and the Store boundary used by the HTTP layer.
//
// This package is intentionally dependency-light and security-first.
package identity
