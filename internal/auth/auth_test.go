package auth_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todosync/internal/auth"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(auth.EnvToken, "")
	t.Setenv(auth.EnvTokenLegacy, "")
}

func TestToken_FileRoundTrip(t *testing.T) {
	isolate(t)

	ti, err := auth.GetToken()
	require.NoError(t, err)
	assert.Nil(t, ti, "not logged in yet")

	require.NoError(t, auth.SetToken("Bearer abc123", nil))
	ti, err = auth.GetToken()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, "abc123", ti.Token)
	assert.Equal(t, "file", ti.Source)
	assert.Equal(t, "abc123", auth.Token())

	p, err := auth.CredFilePath()
	require.NoError(t, err)
	fi, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	require.NoError(t, auth.DeleteToken())
	require.NoError(t, auth.DeleteToken(), "deleting twice is fine")
	assert.Equal(t, "", auth.Token())
}

func TestToken_EnvOverrides(t *testing.T) {
	isolate(t)
	require.NoError(t, auth.SetToken("from-file", nil))

	t.Setenv(auth.EnvTokenLegacy, "legacy")
	assert.Equal(t, "legacy", auth.Token())

	t.Setenv(auth.EnvToken, "bearer primary")
	ti, err := auth.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "primary", ti.Token)
	assert.Equal(t, "env", ti.Source)
}

func TestSetToken_RejectsEmpty(t *testing.T) {
	isolate(t)
	assert.Error(t, auth.SetToken("   ", nil))
}

func TestTokenInfo_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	assert.True(t, (&auth.TokenInfo{ExpiresAt: &past}).Expired(now))
	assert.False(t, (&auth.TokenInfo{}).Expired(now))
	var none *auth.TokenInfo
	assert.False(t, none.Expired(now))
}
