package authapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"patch/cmd/identity"
	"patch/cmd/internal/auth/token"
)

func newTestServer(t *testing.T) *http.ServeMux {
	t.Helper()

	mgr, err := token.NewManager(token.Config{
		Secret: bytes.Repeat([]byte("s"), 32),
		Issuer: "patch",
		TTL:    30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := NewHandler(log, identity.NewInMemoryStore(), mgr, LoadConfigFromEnv())
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func doLogin(t *testing.T, mux *http.ServeMux, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	r := httptest.NewRequest("POST", "/token", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func register(t *testing.T, mux *http.ServeMux, email, username, password string) userResponse {
	t.Helper()

	body := `{"email":"` + email + `","username":"` + username + `","password":"` + password + `"}`
	w := doJSON(t, mux, "POST", "/users/", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", email, w.Code, w.Body.String())
	}
	var u userResponse
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("register decode: %v", err)
	}
	return u
}

func TestRegisterLoginMe(t *testing.T) {
	mux := newTestServer(t)

	u := register(t, mux, "alice@example.com", "alice", "pw1")
	if u.ID == 0 || u.Email != "alice@example.com" || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !u.IsActive {
		t.Fatalf("new user should be active")
	}

	login := doLogin(t, mux, "alice@example.com", "pw1")
	if login.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", login.Code, login.Body.String())
	}
	var tok tokenResponse
	if err := json.Unmarshal(login.Body.Bytes(), &tok); err != nil {
		t.Fatalf("login decode: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", tok)
	}

	me := doJSON(t, mux, "GET", "/users/me", "", map[string]string{
		"Authorization": "Bearer " + tok.AccessToken,
	})
	if me.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", me.Code, me.Body.String())
	}
	var got userResponse
	if err := json.Unmarshal(me.Body.Bytes(), &got); err != nil {
		t.Fatalf("me decode: %v", err)
	}
	if got.ID != u.ID || got.Email != u.Email {
		t.Fatalf("me returned wrong user: %+v", got)
	}

	// A token altered by a single character must be rejected.
	bad := doJSON(t, mux, "GET", "/users/me", "", map[string]string{
		"Authorization": "Bearer " + tok.AccessToken[:len(tok.AccessToken)-1],
	})
	if bad.Code != http.StatusUnauthorized {
		t.Fatalf("truncated token: status %d", bad.Code)
	}
}

func TestRegisterNeverLeaksPasswordMaterial(t *testing.T) {
	mux := newTestServer(t)

	body := `{"email":"bob@example.com","username":"bob","password":"hunter2secret"}`
	w := doJSON(t, mux, "POST", "/users/", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("register: status %d", w.Code)
	}

	resp := w.Body.String()
	for _, needle := range []string{"hunter2secret", "password", "argon2"} {
		if strings.Contains(resp, needle) {
			t.Fatalf("response leaks %q: %s", needle, resp)
		}
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	mux := newTestServer(t)
	register(t, mux, "carol@example.com", "carol", "pw1")

	unknown := doLogin(t, mux, "nobody@example.com", "pw1")
	wrongPw := doLogin(t, mux, "carol@example.com", "wrong")
	empty := doLogin(t, mux, "", "")

	for name, w := range map[string]*httptest.ResponseRecorder{
		"unknown email":  unknown,
		"wrong password": wrongPw,
		"empty form":     empty,
	} {
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status %d", name, w.Code)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Fatalf("%s: WWW-Authenticate=%q", name, got)
		}
	}

	// Bodies must be byte-identical across causes.
	if unknown.Body.String() != wrongPw.Body.String() || wrongPw.Body.String() != empty.Body.String() {
		t.Fatalf("401 bodies differ:\n%s\n%s\n%s", unknown.Body, wrongPw.Body, empty.Body)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	mux := newTestServer(t)
	register(t, mux, "dave@example.com", "dave", "pw1")

	cases := []struct {
		name     string
		body     string
		wantCode string
	}{
		{
			name:     "duplicate email",
			body:     `{"email":"dave@example.com","username":"other","password":"pw1"}`,
			wantCode: "email_taken",
		},
		{
			name:     "duplicate email different case",
			body:     `{"email":"DAVE@example.com","username":"other2","password":"pw1"}`,
			wantCode: "email_taken",
		},
		{
			name:     "duplicate username",
			body:     `{"email":"dave2@example.com","username":"dave","password":"pw1"}`,
			wantCode: "username_taken",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, mux, "POST", "/users/", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status %d body %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.wantCode) {
				t.Fatalf("want code %s, got %s", tc.wantCode, w.Body.String())
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	mux := newTestServer(t)

	// Listing requires a valid bearer token.
	anon := doJSON(t, mux, "GET", "/users/", "", nil)
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: status %d", anon.Code)
	}

	register(t, mux, "erin@example.com", "erin", "pw1")
	register(t, mux, "frank@example.com", "frank", "pw1")

	login := doLogin(t, mux, "erin@example.com", "pw1")
	var tok tokenResponse
	if err := json.Unmarshal(login.Body.Bytes(), &tok); err != nil {
		t.Fatalf("login decode: %v", err)
	}
	auth := map[string]string{"Authorization": "Bearer " + tok.AccessToken}

	all := doJSON(t, mux, "GET", "/users/", "", auth)
	if all.Code != http.StatusOK {
		t.Fatalf("list: status %d", all.Code)
	}
	var users []userResponse
	if err := json.Unmarshal(all.Body.Bytes(), &users); err != nil {
		t.Fatalf("list decode: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("want 2 users, got %d", len(users))
	}

	second := doJSON(t, mux, "GET", "/users/?skip=1&limit=1", "", auth)
	var page []userResponse
	if err := json.Unmarshal(second.Body.Bytes(), &page); err != nil {
		t.Fatalf("page decode: %v", err)
	}
	if len(page) != 1 || page[0].ID != users[1].ID {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestRegisterRejectsMalformedBody(t *testing.T) {
	mux := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{name: "not json", body: "hello"},
		{name: "unknown field", body: `{"email":"x@y.z","username":"x","password":"pw1","admin":true}`},
		{name: "missing password", body: `{"email":"x@y.z","username":"x"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, mux, "POST", "/users/", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status %d body %s", w.Code, w.Body.String())
			}
		})
	}
}
