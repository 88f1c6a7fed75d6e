package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/errors"
	"github.com/ecakir/sift/internal/state"
)

// authBackend is a minimal fake of the remote auth endpoints.
type authBackend struct {
	password   string
	token      string
	meStatus   int // 0 = follow token check
	hits       atomic.Int64
	lastAuthed atomic.Value // string: Authorization header seen on /auth/me
}

func (b *authBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		r.ParseForm()
		if r.PostForm.Get("password") != b.password {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Incorrect email or password"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": b.token, "token_type": "bearer"})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		b.lastAuthed.Store(r.Header.Get("Authorization"))
		if b.meStatus != 0 {
			w.WriteHeader(b.meStatus)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+b.token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Could not validate credentials"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 7, "email": "a@b.co", "full_name": "Ada"})
	})
	return mux
}

func newManager(t *testing.T, srv *httptest.Server, opts ...Option) (*Manager, *state.Store) {
	t.Helper()
	store, err := state.Open(t.TempDir())
	if err != nil {
		t.Fatalf("state.Open failed: %v", err)
	}
	client := api.New(srv.URL, store)
	return New(client, store, opts...), store
}

func TestLogin_Success(t *testing.T) {
	backend := &authBackend{password: "hunter2", token: "tok-1"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv)

	if err := mgr.Login(context.Background(), "a@b.co", "hunter2", ""); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	tok, ok := store.Token()
	if !ok || tok != "tok-1" {
		t.Errorf("stored token = %q, %v", tok, ok)
	}
	if mgr.State() != LoggedIn {
		t.Errorf("State = %v, want LoggedIn", mgr.State())
	}
	if u := mgr.User(); u == nil || u.Email != "a@b.co" {
		t.Errorf("User = %+v", u)
	}
	// The profile fetch must have carried the freshly persisted token.
	if got := backend.lastAuthed.Load(); got != "Bearer tok-1" {
		t.Errorf("me Authorization = %v, want Bearer tok-1", got)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	backend := &authBackend{password: "right", token: "tok-1"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv)

	err := mgr.Login(context.Background(), "a@b.co", "wrong", "")
	if !errors.Is(err, errors.ErrUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
	if _, ok := store.Token(); ok {
		t.Error("no token should be stored after a failed login")
	}
	if mgr.State() != LoggedOut {
		t.Errorf("State = %v, want LoggedOut", mgr.State())
	}
}

func TestLogin_ValidationNeverHitsNetwork(t *testing.T) {
	backend := &authBackend{password: "x", token: "t"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, _ := newManager(t, srv)

	if err := mgr.Login(context.Background(), "  ", "pw", ""); !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("err = %v, want VALIDATION", err)
	}
	if err := mgr.Login(context.Background(), "a@b.co", "", ""); !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("err = %v, want VALIDATION", err)
	}
	if backend.hits.Load() != 0 {
		t.Errorf("backend hits = %d, want 0", backend.hits.Load())
	}
}

func TestLogin_ProfileSoftFail(t *testing.T) {
	backend := &authBackend{password: "pw", token: "tok-1", meStatus: http.StatusBadGateway}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv)

	// A transient profile hiccup must not discard a valid token.
	if err := mgr.Login(context.Background(), "a@b.co", "pw", ""); err != nil {
		t.Fatalf("Login should soft-fail, got: %v", err)
	}

	if _, ok := store.Token(); !ok {
		t.Error("token should survive a transient profile failure")
	}
	if mgr.User() != nil {
		t.Error("user should be absent after a profile failure")
	}
}

func TestLogin_ProfileRejectedTearsDown(t *testing.T) {
	backend := &authBackend{password: "pw", token: "tok-1", meStatus: http.StatusUnauthorized}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv)

	err := mgr.Login(context.Background(), "a@b.co", "pw", "")
	if !errors.Is(err, errors.ErrUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
	if _, ok := store.Token(); ok {
		t.Error("a token rejected by the profile endpoint must be cleared")
	}
}

func TestLogout_ClearsTokenAndStripsAuth(t *testing.T) {
	backend := &authBackend{password: "pw", token: "tok-1"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv)
	if err := mgr.Login(context.Background(), "a@b.co", "pw", ""); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := mgr.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Error("token store should be empty after Logout")
	}
	if mgr.State() != LoggedOut {
		t.Errorf("State = %v, want LoggedOut", mgr.State())
	}

	// Subsequent requests carry no Authorization header.
	client := api.New(srv.URL, store)
	client.Me(context.Background())
	if got := backend.lastAuthed.Load(); got != "" {
		t.Errorf("Authorization after logout = %v, want empty", got)
	}

	// Idempotent.
	if err := mgr.Logout(); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
}

func TestRestore_NoToken(t *testing.T) {
	backend := &authBackend{password: "pw", token: "tok-1"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, _ := newManager(t, srv)

	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if mgr.State() != LoggedOut {
		t.Errorf("State = %v, want LoggedOut", mgr.State())
	}
	if backend.hits.Load() != 0 {
		t.Error("Restore without a token should not call the backend")
	}
}

func TestRestore_ValidToken(t *testing.T) {
	backend := &authBackend{password: "pw", token: "tok-1"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv)
	if err := store.SetToken("tok-1"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if mgr.State() != LoggedIn {
		t.Errorf("State = %v, want LoggedIn", mgr.State())
	}
}

func TestRestore_ExpiredTokenClearsSilently(t *testing.T) {
	backend := &authBackend{password: "pw", token: "tok-1"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv)
	if err := store.SetToken("stale-token"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	// No error surfaces; the process just starts logged out.
	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("Restore should swallow the 401, got: %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Error("expired token should be cleared")
	}
	if mgr.State() != LoggedOut {
		t.Errorf("State = %v, want LoggedOut", mgr.State())
	}
}

func TestRestore_TransientFailureKeepsToken(t *testing.T) {
	backend := &authBackend{password: "pw", token: "tok-1", meStatus: http.StatusServiceUnavailable}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv)
	if err := store.SetToken("tok-1"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	if err := mgr.Restore(context.Background()); err == nil {
		t.Fatal("Restore should report a transient failure")
	}
	if _, ok := store.Token(); !ok {
		t.Error("token should be kept so a later restart can retry")
	}
}

func TestRegister_NoImplicitSession(t *testing.T) {
	backend := &authBackend{password: "pw", token: "tok-1"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv)

	if err := mgr.Register(context.Background(), api.RegisterInput{Email: "a@b.co", Password: "pw"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Error("Register must not store a token unless auto-login is enabled")
	}
	if mgr.State() != LoggedOut {
		t.Errorf("State = %v, want LoggedOut", mgr.State())
	}
}

func TestRegister_AutoLogin(t *testing.T) {
	backend := &authBackend{password: "pw", token: "tok-1"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	mgr, store := newManager(t, srv, WithAutoLoginAfterRegister())

	if err := mgr.Register(context.Background(), api.RegisterInput{Email: "a@b.co", Password: "pw"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, ok := store.Token(); !ok {
		t.Error("auto-login should have stored a token")
	}
	if mgr.State() != LoggedIn {
		t.Errorf("State = %v, want LoggedIn", mgr.State())
	}
}
