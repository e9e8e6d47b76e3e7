package guard

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"patch/cmd/identity"
	"patch/cmd/internal/auth/token"
)

func newTestGuard(t *testing.T) (*Guard, *token.Manager, identity.User) {
	t.Helper()

	mgr, err := token.NewManager(token.Config{
		Secret: bytes.Repeat([]byte("k"), 32),
		Issuer: "patch",
		TTL:    30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	store := identity.NewInMemoryStore()
	user, err := store.CreateUser(context.Background(), identity.CreateUserInput{
		Email:    "dev@example.com",
		Username: "dev",
		Password: "pw1",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	return New(mgr, store), mgr, user
}

func TestGuard_AcceptsValidToken(t *testing.T) {
	g, mgr, user := newTestGuard(t)

	signed, _, err := mgr.Issue(user.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest("GET", "/users/me", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	got, err := g.UserFromRequest(r)
	if err != nil {
		t.Fatalf("UserFromRequest: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email {
		t.Fatalf("resolved wrong user: %+v", got)
	}
}

func TestGuard_SchemeIsCaseInsensitive(t *testing.T) {
	g, mgr, user := newTestGuard(t)

	signed, _, err := mgr.Issue(user.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest("GET", "/users/me", nil)
	r.Header.Set("Authorization", "bearer "+signed)

	if _, err := g.UserFromRequest(r); err != nil {
		t.Fatalf("UserFromRequest: %v", err)
	}
}

func TestGuard_RejectsUniformly(t *testing.T) {
	g, mgr, user := newTestGuard(t)

	now := time.Now().UTC()
	signed, _, err := mgr.Issue(user.ID, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expired, _, err := mgr.Issue(user.ID, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Issue expired: %v", err)
	}
	unknownSubject, _, err := mgr.Issue(user.ID+999, now)
	if err != nil {
		t.Fatalf("Issue unknown: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic " + signed},
		{name: "no credential", header: "Bearer "},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "truncated token", header: "Bearer " + signed[:len(signed)-1]},
		{name: "expired token", header: "Bearer " + expired},
		{name: "unknown subject", header: "Bearer " + unknownSubject},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/users/me", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			_, err := g.UserFromRequest(r)
			if err != ErrUnauthenticated {
				t.Fatalf("want ErrUnauthenticated, got %v", err)
			}
		})
	}
}
