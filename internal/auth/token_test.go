package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsRoundTrip(t *testing.T) {
	t.Setenv("TAREAS_TOKEN", "")
	s := NewCredentialStore(t.TempDir())

	require.NoError(t, s.Save(Credentials{Token: "abc"}))

	c, err := s.Get()
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "abc", c.Token)
	assert.Equal(t, "file", c.Source)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestGetWhenNotLoggedIn(t *testing.T) {
	t.Setenv("TAREAS_TOKEN", "")
	s := NewCredentialStore(t.TempDir())

	c, err := s.Get()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TAREAS_TOKEN", "Bearer fromenv")
	s := NewCredentialStore(t.TempDir())

	c, err := s.Get()
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "fromenv", c.Token)
	assert.Equal(t, "env", c.Source)
}

func TestSaveStripsBearerPrefix(t *testing.T) {
	t.Setenv("TAREAS_TOKEN", "")
	s := NewCredentialStore(t.TempDir())

	require.NoError(t, s.Save(Credentials{Token: "Bearer abc"}))

	c, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Token)
}

func TestSaveEmptyCredentialsFails(t *testing.T) {
	s := NewCredentialStore(t.TempDir())
	assert.Error(t, s.Save(Credentials{}))
}

func TestRemoveIsIdempotent(t *testing.T) {
	t.Setenv("TAREAS_TOKEN", "")
	s := NewCredentialStore(t.TempDir())

	require.NoError(t, s.Remove())

	require.NoError(t, s.Save(Credentials{Email: "a@b.com"}))
	require.NoError(t, s.Remove())
	require.NoError(t, s.Remove())

	c, err := s.Get()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestTokenHelper(t *testing.T) {
	t.Setenv("TAREAS_TOKEN", "")
	s := NewCredentialStore(t.TempDir())

	assert.Empty(t, s.Token())
	require.NoError(t, s.Save(Credentials{Token: "abc"}))
	assert.Equal(t, "abc", s.Token())
}
