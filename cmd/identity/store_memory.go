package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemoryStore is a dev-mode fallback when DB is not configured.
// Uniqueness is enforced under a single mutex, which stands in for the
// database unique indexes.
type InMemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*UserAuth
	byEmail map[string]int64 // normalized email -> id
	byUname map[string]int64 // normalized username -> id
}

// NewInMemoryStore constructs an in-memory Store implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[int64]*UserAuth),
		byEmail: make(map[string]int64),
		byUname: make(map[string]int64),
	}
}

// CreateUser registers a new user with monotonic id allocation.
func (s *InMemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" {
		return User{}, pgInvalid(op, "email is required")
	}
	if username == "" {
		return User{}, pgInvalid(op, "username is required")
	}
	if in.Password == "" {
		return User{}, pgInvalid(op, "password is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// Hash outside the lock; Argon2id is deliberately slow.
	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	emailNorm := NormalizeEmail(email)
	unameNorm := NormalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[emailNorm]; ok {
		return User{}, ConflictError{Op: op, Field: "email"}
	}
	if _, ok := s.byUname[unameNorm]; ok {
		return User{}, ConflictError{Op: op, Field: "username"}
	}

	s.nextID++
	ua := &UserAuth{
		User: User{
			ID:        s.nextID,
			Email:     email,
			Username:  username,
			FullName:  pgTrimPtr(in.FullName),
			IsActive:  true,
			CreatedAt: now,
		},
		PasswordHash: pwHash,
	}

	s.byID[ua.ID] = ua
	s.byEmail[emailNorm] = ua.ID
	s.byUname[unameNorm] = ua.ID

	return ua.User, nil
}

// GetUserByID returns the user or NotFoundError.
func (s *InMemoryStore) GetUserByID(ctx context.Context, id int64) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ua, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return ua.User, nil
}

// GetUserAuthByEmail resolves a user plus password hash by normalized email.
func (s *InMemoryStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	norm := NormalizeEmail(email)
	if norm == "" {
		return UserAuth{}, pgInvalid(op, "email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[norm]
	if !ok {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	return *s.byID[id], nil
}

// ListUsers returns a page of users ordered by id.
func (s *InMemoryStore) ListUsers(ctx context.Context, skip, limit int) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	skip, limit = clampPage(skip, limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]User, 0, limit)
	// IDs are allocated 1..nextID with no deletion in scope, so a sequential
	// scan yields id order.
	for id := int64(1); id <= s.nextID && len(out) < limit; id++ {
		ua, ok := s.byID[id]
		if !ok {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, ua.User)
	}
	return out, nil
}
