package identity

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestInMemoryStore_CreateUser_AndLookup(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	full := "Alice Example"
	u, err := s.CreateUser(ctx, CreateUserInput{
		Email:    "a@x.com",
		Username: "alice",
		Password: "pw1",
		FullName: &full,
		Now:      now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID != 1 {
		t.Fatalf("first id should be 1, got %d", u.ID)
	}
	if !u.IsActive {
		t.Fatalf("new users must be active")
	}

	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Email != "a@x.com" || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}

	ua, err := s.GetUserAuthByEmail(ctx, "A@X.COM")
	if err != nil {
		t.Fatalf("GetUserAuthByEmail (case-insensitive): %v", err)
	}
	if ua.PasswordHash == "" || ua.PasswordHash == "pw1" {
		t.Fatalf("stored credential must be a hash, got %q", ua.PasswordHash)
	}
	ok, err := VerifyPassword("pw1", ua.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword: ok=%v err=%v", ok, err)
	}
}

func TestInMemoryStore_DuplicateEmail_Conflicts(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, CreateUserInput{Email: "dup@x.com", Username: "one", Password: "pw"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := s.CreateUser(ctx, CreateUserInput{Email: "DUP@x.com", Username: "two", Password: "pw"})
	if err == nil {
		t.Fatalf("expected conflict on duplicate email")
	}
	if !IsConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ConflictField(err) != "email" {
		t.Fatalf("expected email conflict, got %q", ConflictField(err))
	}

	// No duplicate row exists afterwards.
	users, err := s.ListUsers(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected exactly 1 user, got %d", len(users))
	}
}

func TestInMemoryStore_DuplicateUsername_Conflicts(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, CreateUserInput{Email: "one@x.com", Username: "Navid", Password: "pw"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := s.CreateUser(ctx, CreateUserInput{Email: "two@x.com", Username: "nAvId", Password: "pw"})
	if !IsConflict(err) || ConflictField(err) != "username" {
		t.Fatalf("expected username conflict, got %v", err)
	}
}

func TestInMemoryStore_SaltingProperty(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	ctx := context.Background()

	for _, in := range []CreateUserInput{
		{Email: "p1@x.com", Username: "p1", Password: "identical-password"},
		{Email: "p2@x.com", Username: "p2", Password: "identical-password"},
	} {
		if _, err := s.CreateUser(ctx, in); err != nil {
			t.Fatalf("CreateUser(%s): %v", in.Email, err)
		}
	}

	ua1, err := s.GetUserAuthByEmail(ctx, "p1@x.com")
	if err != nil {
		t.Fatalf("lookup p1: %v", err)
	}
	ua2, err := s.GetUserAuthByEmail(ctx, "p2@x.com")
	if err != nil {
		t.Fatalf("lookup p2: %v", err)
	}
	if ua1.PasswordHash == ua2.PasswordHash {
		t.Fatalf("hashes of identical passwords must differ (fresh salt per user)")
	}
}

func TestInMemoryStore_ListUsers_Paging(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	ctx := context.Background()

	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		if _, err := s.CreateUser(ctx, CreateUserInput{
			Email:    name + "@x.com",
			Username: name,
			Password: "pw",
		}); err != nil {
			t.Fatalf("CreateUser(%s): %v", name, err)
		}
	}

	page, err := s.ListUsers(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(page) != 2 || page[0].Username != "u3" || page[1].Username != "u4" {
		t.Fatalf("unexpected page: %+v", page)
	}

	rest, err := s.ListUsers(ctx, 4, 100)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(rest) != 1 || rest[0].Username != "u5" {
		t.Fatalf("unexpected tail page: %+v", rest)
	}
}

func TestVerifyPassword_MalformedHashIsNonMatch(t *testing.T) {
	t.Parallel()

	ok, err := VerifyPassword("pw", "garbage-not-a-phc-hash")
	if err != nil {
		t.Fatalf("malformed hash must not error: %v", err)
	}
	if ok {
		t.Fatalf("malformed hash must not match")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := NormalizeEmail("  A@X.Com "); got != "a@x.com" {
		t.Fatalf("NormalizeEmail: %q", got)
	}
	if got := NormalizeUsername("\tAlice "); got != "alice" {
		t.Fatalf("NormalizeUsername: %q", got)
	}
	if !strings.HasPrefix(NormalizeEmail("User@Host"), "user@") {
		t.Fatalf("NormalizeEmail should lower-case")
	}
}
