// Package authapi serves registration, login and user listing endpoints.
package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"patch/cmd/identity"
	"patch/cmd/internal/auth/guard"
	"patch/cmd/internal/auth/token"
	"patch/cmd/internal/web"
)

// Handler wires HTTP auth endpoints to the identity store and token manager.
type Handler struct {
	log    *slog.Logger
	cfg    Config
	users  identity.Store
	tokens *token.Manager
	guard  *guard.Guard

	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, users identity.Store, tokens *token.Manager, cfg Config) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil {
		return nil, errors.New("auth: nil user store")
	}
	if tokens == nil {
		return nil, errors.New("auth: nil token manager")
	}

	h := &Handler{
		log:    log,
		cfg:    cfg,
		users:  users,
		tokens: tokens,
		guard:  guard.New(tokens, users),
	}

	// Dummy hash for timing-resistant login checks.
	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Guard exposes the request authenticator for other handler packages.
func (h *Handler) Guard() *guard.Guard {
	return h.guard
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /token", h.handleToken)
	mux.HandleFunc("POST /users/{$}", h.handleCreateUser)
	mux.HandleFunc("GET /users/{$}", h.handleListUsers)
	mux.HandleFunc("GET /users/me", h.handleMe)
}

// ---- handlers ----

// handleToken implements the password grant over a form body. Every failure
// mode produces the same 401; the response must not reveal whether the email
// exists, the password was wrong, or the account is deactivated.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.WriteInvalidCredentials(w)
		return
	}

	// The form field is named "username" but carries the email address.
	email := strings.TrimSpace(r.PostFormValue("username"))
	pw := r.PostFormValue("password")
	if email == "" || pw == "" {
		web.WriteInvalidCredentials(w)
		return
	}

	ctx := r.Context()
	userAuth, err := h.users.GetUserAuthByEmail(ctx, email)
	if err != nil {
		// Timing resistance: perform a dummy verify when user is missing.
		if h.dummyHash != "" {
			_, _ = identity.VerifyPassword(pw, h.dummyHash)
		}
		if !identity.IsNotFound(err) {
			h.log.Error("auth.token.lookup.fail", "err", err)
		}
		web.WriteInvalidCredentials(w)
		return
	}

	okPw, err := identity.VerifyPassword(pw, userAuth.PasswordHash)
	if err != nil || !okPw {
		web.WriteInvalidCredentials(w)
		return
	}
	if !userAuth.IsActive {
		web.WriteInvalidCredentials(w)
		return
	}

	signed, _, err := h.tokens.Issue(userAuth.ID, time.Now().UTC())
	if err != nil {
		h.log.Error("auth.token.issue.fail", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	web.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
	})
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := web.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		web.WriteError(w, http.StatusBadRequest, "invalid_request", "email, username and password are required")
		return
	}

	ctx := r.Context()

	// Friendly pre-check; the unique index remains the authoritative guard
	// against the concurrent case.
	if _, err := h.users.GetUserAuthByEmail(ctx, req.Email); err == nil {
		web.WriteError(w, http.StatusBadRequest, "email_taken", "email already registered")
		return
	} else if !identity.IsNotFound(err) {
		h.log.Error("auth.register.precheck.fail", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	user, err := h.users.CreateUser(ctx, identity.CreateUserInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Now:      time.Now().UTC(),
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			if identity.ConflictField(err) == "username" {
				web.WriteError(w, http.StatusBadRequest, "username_taken", "username already registered")
			} else {
				web.WriteError(w, http.StatusBadRequest, "email_taken", "email already registered")
			}
		case identity.IsInvalidInput(err):
			web.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid registration data")
		default:
			h.log.Error("auth.register.fail", "err", err)
			web.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	web.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.guard.UserFromRequest(r)
	if err != nil {
		web.WriteInvalidCredentials(w)
		return
	}

	web.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.UserFromRequest(r); err != nil {
		web.WriteInvalidCredentials(w)
		return
	}

	page := web.PageFromRequest(r, h.cfg.ListLimit)
	users, err := h.users.ListUsers(r.Context(), page.Skip, page.Limit)
	if err != nil {
		h.log.Error("auth.list_users.fail", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	web.WriteJSON(w, http.StatusOK, toUserResponses(users))
}
