package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/camoris/tareas/internal/api"
)

// localPassword is the fixed shared password of the local variant. The
// local sign-in is a non-validating identity capture, not real auth.
const localPassword = "1234"

// AuthError blocks sign-in. Message is safe to show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Message, e.Err)
	}
	return "auth: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// Session is a snapshot of the authentication state. Exactly one of
// Token (remote variant) or Email (local variant) is set while signed
// in; both empty means signed out.
type Session struct {
	Token   string
	Email   string
	Loading bool
}

// Identity is the value that scopes the visible todo collection.
func (s Session) Identity() string {
	if s.Email != "" {
		return s.Email
	}
	return s.Token
}

func (s Session) Authenticated() bool { return s.Identity() != "" }

// Manager owns the current session and is the single source of truth
// for whether the user is signed in. client is nil in the local variant.
type Manager struct {
	store  *CredentialStore
	client *api.Client

	mu      sync.Mutex
	session Session
}

func NewManager(store *CredentialStore, client *api.Client) *Manager {
	return &Manager{
		store:   store,
		client:  client,
		session: Session{Loading: true},
	}
}

// Initialize reads persisted credentials once at process start and
// clears the loading flag. Runs exactly once; later calls are no-ops.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.session.Loading {
		return nil
	}
	c, err := m.store.Get()
	if err != nil {
		m.session = Session{}
		return fmt.Errorf("initialize session: %w", err)
	}
	s := Session{}
	if c != nil {
		if m.client != nil {
			s.Token = c.Token
		} else {
			s.Email = c.Email
		}
	}
	m.session = s
	return nil
}

// Session returns the current snapshot.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// SignIn authenticates and persists the resulting identity. On failure
// the prior session state is left untouched. No retries.
func (m *Manager) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)

	if m.client != nil {
		token, err := m.client.Login(ctx, email, password)
		if err != nil {
			return m.Session(), &AuthError{Message: userMessage(err), Err: err}
		}
		if err := m.store.Save(Credentials{Token: token}); err != nil {
			return m.Session(), &AuthError{Message: "could not save session", Err: err}
		}
		m.mu.Lock()
		m.session = Session{Token: token}
		m.mu.Unlock()
		return m.Session(), nil
	}

	// Local variant: password first, then email presence.
	if password != localPassword {
		return m.Session(), &AuthError{Message: "incorrect password"}
	}
	if email == "" {
		return m.Session(), &AuthError{Message: "enter an email"}
	}
	if err := m.store.Save(Credentials{Email: email}); err != nil {
		return m.Session(), &AuthError{Message: "could not save session", Err: err}
	}
	m.mu.Lock()
	m.session = Session{Email: email}
	m.mu.Unlock()
	return m.Session(), nil
}

// SignOut clears persisted credentials and resets the session. Always
// succeeds from the caller's perspective.
func (m *Manager) SignOut() {
	_ = m.store.Remove()
	m.mu.Lock()
	m.session = Session{}
	m.mu.Unlock()
}

// userMessage extracts the server's message from an API error, or falls
// back to a generic line.
func userMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "sign in failed"
}
