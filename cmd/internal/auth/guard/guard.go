// Package guard authenticates incoming requests. It is the only place that
// turns an Authorization header into a user: every protected handler goes
// through Guard.UserFromRequest, so the failure surface stays uniform.
package guard

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"patch/cmd/identity"
	"patch/cmd/internal/auth/token"
)

// ErrUnauthenticated is the single error returned for every failure mode:
// missing header, malformed scheme, bad signature, expired token, unknown
// subject and deactivated account. Callers must not branch on the cause.
var ErrUnauthenticated = errors.New("guard: unauthenticated")

// Guard resolves bearer tokens to active users.
type Guard struct {
	tokens *token.Manager
	users  identity.Store
}

func New(tokens *token.Manager, users identity.Store) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// UserFromRequest extracts and verifies the bearer token, then resolves the
// token subject against the user store. The subject must name an existing,
// active user at the time of the request; a valid signature alone is not
// enough.
func (g *Guard) UserFromRequest(r *http.Request) (identity.User, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return identity.User{}, ErrUnauthenticated
	}

	claims, err := g.tokens.Verify(raw, time.Now().UTC())
	if err != nil {
		return identity.User{}, ErrUnauthenticated
	}

	return g.resolve(r.Context(), claims.Subject)
}

func (g *Guard) resolve(ctx context.Context, userID int64) (identity.User, error) {
	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		return identity.User{}, ErrUnauthenticated
	}
	if !user.IsActive {
		return identity.User{}, ErrUnauthenticated
	}
	return user, nil
}

// bearerToken pulls the credential out of the Authorization header. The
// scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	credential := strings.TrimSpace(parts[1])
	if credential == "" {
		return "", false
	}
	return credential, true
}
