package identity

import (
	"context"
	"time"
)

// User is Patch's canonical security principal.
// PasswordHash deliberately lives on UserAuth, not here, so the hash can
// never leak through a serialized User.
type User struct {
	ID       int64
	Email    string
	Username string
	FullName *string
	Bio      *string
	IsActive bool

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// UserAuth is a User plus its stored credential material.
// Only the login path may load it.
type UserAuth struct {
	User
	PasswordHash string
}

// CreateUserInput describes a user registration request.
type CreateUserInput struct {
	Email    string
	Username string
	Password string
	FullName *string
	Now      time.Time
}

// Store is the identity persistence boundary.
//
// Uniqueness contract:
//   - email and username are unique case-insensitively; the storage engine's
//     unique constraints are the authoritative guard under concurrent
//     registrations, and violations surface as ConflictError.
type Store interface {
	// CreateUser registers a new user, hashing the password before storage.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetUserByID returns the user or NotFoundError.
	GetUserByID(ctx context.Context, id int64) (User, error)

	// GetUserAuthByEmail resolves a user plus password hash by normalized
	// email, or NotFoundError.
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)

	// ListUsers returns a page of users ordered by id.
	ListUsers(ctx context.Context, skip, limit int) ([]User, error)
}
