// Package session owns the authentication lifecycle: login, registration,
// logout, and restoring a persisted token on startup.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/errors"
)

// State is the session state. There is no persisted intermediate state;
// "logging in" is transient UI concern, not session state.
type State string

const (
	LoggedOut State = "logged_out"
	LoggedIn  State = "logged_in"
)

// Manager drives the session against the remote auth endpoints and the
// token store. It is the only writer of the token store.
type Manager struct {
	api   *api.Client
	store TokenStore

	mu   sync.Mutex
	user *api.User

	// autoLoginAfterRegister makes Register establish a session. The
	// backend does not imply this; callers opt in via configuration.
	autoLoginAfterRegister bool
}

// TokenStore is the durable token storage the manager writes to.
type TokenStore interface {
	Token() (string, bool)
	SetToken(string) error
	ClearToken() error
}

// Option configures a Manager.
type Option func(*Manager)

// WithAutoLoginAfterRegister makes Register log in on success.
func WithAutoLoginAfterRegister() Option {
	return func(m *Manager) { m.autoLoginAfterRegister = true }
}

// New creates a Manager.
func New(client *api.Client, store TokenStore, opts ...Option) *Manager {
	m := &Manager{api: client, store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login exchanges credentials for a token, persists it, then loads the
// profile. The token is persisted before the profile fetch so any request
// issued afterwards carries it. A profile fetch that fails with anything
// other than 401 is a soft failure: the token is valid, the user stays
// absent until the next restore attempt.
func (m *Manager) Login(ctx context.Context, email, password, captchaToken string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.NewValidation("email is required")
	}
	if password == "" {
		return errors.NewValidation("password is required")
	}

	token, err := m.api.Login(ctx, email, password, captchaToken)
	if err != nil {
		return err
	}
	if err := m.store.SetToken(token); err != nil {
		return err
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			// The token we were just handed is already rejected; do not
			// keep it around.
			_ = m.store.ClearToken()
			return err
		}
		m.setUser(nil)
		return nil
	}

	m.setUser(user)
	return nil
}

// Register creates an account. With WithAutoLoginAfterRegister it then
// logs in; otherwise the caller is left unauthenticated and must log in
// explicitly.
func (m *Manager) Register(ctx context.Context, in api.RegisterInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return errors.NewValidation("email is required")
	}
	if in.Password == "" {
		return errors.NewValidation("password is required")
	}

	if err := m.api.Register(ctx, in); err != nil {
		return err
	}

	if m.autoLoginAfterRegister {
		return m.Login(ctx, in.Email, in.Password, in.CaptchaToken)
	}
	return nil
}

// Logout clears the token store and the cached user. Idempotent.
func (m *Manager) Logout() error {
	m.setUser(nil)
	return m.store.ClearToken()
}

// Restore attempts to resume a previous session on startup. An expired or
// revoked token is cleared silently; the process simply starts logged out.
// A transient failure keeps the token so a later restart can retry.
func (m *Manager) Restore(ctx context.Context) error {
	if _, ok := m.store.Token(); !ok {
		return nil
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			m.setUser(nil)
			return m.store.ClearToken()
		}
		return err
	}

	m.setUser(user)
	return nil
}

// State reports LoggedIn once a profile has been validated.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user != nil {
		return LoggedIn
	}
	return LoggedOut
}

// User returns the cached profile, or nil when logged out (or when a login
// soft-failed on the profile fetch).
func (m *Manager) User() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// TokenPresent reports whether a token is stored, independent of whether
// the profile has been validated yet.
func (m *Manager) TokenPresent() bool {
	_, ok := m.store.Token()
	return ok
}

func (m *Manager) setUser(u *api.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = u
}
