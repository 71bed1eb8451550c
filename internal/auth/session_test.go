package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camoris/tareas/internal/api"
)

func newLocalManager(t *testing.T) (*Manager, *CredentialStore) {
	t.Helper()
	t.Setenv("TAREAS_TOKEN", "")
	store := NewCredentialStore(t.TempDir())
	return NewManager(store, nil), store
}

func TestInitializeWithoutCredentials(t *testing.T) {
	m, _ := newLocalManager(t)

	assert.True(t, m.Session().Loading)
	require.NoError(t, m.Initialize())

	s := m.Session()
	assert.False(t, s.Loading)
	assert.False(t, s.Authenticated())
}

func TestLocalSignIn(t *testing.T) {
	m, store := newLocalManager(t)
	require.NoError(t, m.Initialize())

	s, err := m.SignIn(context.Background(), "a@b.com", "1234")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", s.Email)
	assert.Equal(t, "a@b.com", s.Identity())
	assert.True(t, s.Authenticated())

	// Identity survives a restart.
	c, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "a@b.com", c.Email)
}

func TestLocalSignInChecksPasswordFirst(t *testing.T) {
	m, _ := newLocalManager(t)
	require.NoError(t, m.Initialize())

	// Wrong password wins over missing email.
	_, err := m.SignIn(context.Background(), "", "nope")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "incorrect password", authErr.Message)

	_, err = m.SignIn(context.Background(), "", "1234")
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "enter an email", authErr.Message)

	assert.False(t, m.Session().Authenticated())
}

func TestFailedSignInLeavesSessionUntouched(t *testing.T) {
	m, _ := newLocalManager(t)
	require.NoError(t, m.Initialize())
	_, err := m.SignIn(context.Background(), "a@b.com", "1234")
	require.NoError(t, err)

	_, err = m.SignIn(context.Background(), "c@d.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "a@b.com", m.Session().Email)
}

func TestSignOutClearsEverything(t *testing.T) {
	m, store := newLocalManager(t)
	require.NoError(t, m.Initialize())
	_, err := m.SignIn(context.Background(), "a@b.com", "1234")
	require.NoError(t, err)

	m.SignOut()

	assert.False(t, m.Session().Authenticated())
	c, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestInitializeRestoresLocalIdentity(t *testing.T) {
	t.Setenv("TAREAS_TOKEN", "")
	dir := t.TempDir()
	store := NewCredentialStore(dir)

	first := NewManager(store, nil)
	require.NoError(t, first.Initialize())
	_, err := first.SignIn(context.Background(), "a@b.com", "1234")
	require.NoError(t, err)

	second := NewManager(NewCredentialStore(dir), nil)
	require.NoError(t, second.Initialize())
	assert.Equal(t, "a@b.com", second.Session().Email)
}

func TestRemoteSignInPersistsToken(t *testing.T) {
	t.Setenv("TAREAS_TOKEN", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"token":"tok123"}}`))
	}))
	defer srv.Close()

	store := NewCredentialStore(t.TempDir())
	m := NewManager(store, api.New(srv.URL, store.Token))
	require.NoError(t, m.Initialize())

	s, err := m.SignIn(context.Background(), "a@b.com", "1234")
	require.NoError(t, err)
	assert.Equal(t, "tok123", s.Token)
	assert.Equal(t, "tok123", s.Identity())
	assert.Equal(t, "tok123", store.Token())
}

func TestRemoteSignInSurfacesServerMessage(t *testing.T) {
	t.Setenv("TAREAS_TOKEN", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer srv.Close()

	store := NewCredentialStore(t.TempDir())
	m := NewManager(store, api.New(srv.URL, store.Token))
	require.NoError(t, m.Initialize())

	_, err := m.SignIn(context.Background(), "a@b.com", "wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid credentials", authErr.Message)
	assert.False(t, m.Session().Authenticated())
	assert.Empty(t, store.Token())
}
