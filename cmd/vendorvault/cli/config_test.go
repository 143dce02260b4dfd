package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadSession()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	require.NoError(t, SaveSession(Session{
		Server: "https://vault.example.com",
		Email:  "vendor@example.com",
		Token:  "tok-123",
	}))

	s, err := LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "https://vault.example.com", s.Server)
	assert.Equal(t, "tok-123", s.Token)
	assert.Empty(t, s.DefaultProduct)

	if runtime.GOOS != "windows" {
		path, err := sessionPath()
		require.NoError(t, err)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestLoadSessionRejectsEmptyToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveSession(Session{Server: "https://vault.example.com"}))
	_, err := LoadSession()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "re-authenticate")
}

func TestLoadSessionRejectsCorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, ".vendorvault", "session.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := LoadSession()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt session file")
}

func TestDefaultProductResolution(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, SaveSession(Session{Server: "https://vault.example.com", Token: "tok"}))

	// No argument and no default set.
	_, err := resolveProduct(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product use")

	require.NoError(t, SetDefaultProduct("prod-1"))

	id, err := resolveProduct(nil)
	require.NoError(t, err)
	assert.Equal(t, "prod-1", id)

	// An explicit argument wins over the default.
	id, err = resolveProduct([]string{"prod-2"})
	require.NoError(t, err)
	assert.Equal(t, "prod-2", id)

	// Setting the default did not clobber the rest of the session.
	s, err := LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "tok", s.Token)
}
