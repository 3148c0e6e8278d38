package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudswin/nettube/internal/models"
)

func TestSessionEmptyByDefault(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	assert.False(t, s.Active())
	_, err = s.Tokens()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Nil(t, s.User())
}

func TestSessionSetPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(Tokens{Access: "acc", Refresh: "ref"}))

	// A second Session over the same file sees the tokens.
	reopened, err := New(path)
	require.NoError(t, err)
	tok, err := reopened.Tokens()
	require.NoError(t, err)
	assert.Equal(t, "acc", tok.Access)
	assert.Equal(t, "ref", tok.Refresh)
}

func TestSessionFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(Tokens{Access: "acc", Refresh: "ref"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSessionClearWipesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(Tokens{Access: "acc", Refresh: "ref"}))
	s.SetUser(&models.User{ID: "u1", Email: "a@b.c"})

	require.NoError(t, s.Clear())

	assert.False(t, s.Active())
	assert.Nil(t, s.User())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "token file must be removed")

	// Clearing an already-clear session is fine.
	require.NoError(t, s.Clear())
}

func TestSessionRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := New(path)
	assert.Error(t, err)
}
