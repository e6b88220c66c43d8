package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todosync/internal/config"
)

// isolate points HOME at an empty dir and blanks every variable Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"TODO_API_URL", "VITE_API_URL", "TODO_TIMEOUT", "TODO_ORIGIN",
		"TODO_THEME", "TODO_LOG_FILE", "TODO_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return home
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8173/api", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "classic", cfg.Theme)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Origin)
}

func TestLoad_DefaultFileThenEnv(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".tada", "config.json"),
		`{"api_url":"http://file.example/api/","timeout":"3s","theme":"neon"}`)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://file.example/api", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "neon", cfg.Theme)

	t.Setenv("TODO_API_URL", "http://env.example/api")
	t.Setenv("TODO_TIMEOUT", "250ms")
	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://env.example/api", cfg.APIURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
}

func TestLoad_ViteAliasIsFallback(t *testing.T) {
	isolate(t)
	t.Setenv("VITE_API_URL", "http://vite.example/api")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://vite.example/api", cfg.APIURL)

	t.Setenv("TODO_API_URL", "http://todo.example/api")
	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://todo.example/api", cfg.APIURL)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	isolate(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := map[string][2]string{
		"relative url":  {"TODO_API_URL", "localhost:8173"},
		"ftp url":       {"TODO_API_URL", "ftp://example.com"},
		"zero timeout":  {"TODO_TIMEOUT", "0s"},
		"bad timeout":   {"TODO_TIMEOUT", "soon"},
		"unknown theme": {"TODO_THEME", "rainbow"},
		"bad level":     {"TODO_LOG_LEVEL", "loud"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			t.Setenv(kv[0], kv[1])
			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, "TODO_ORIGIN=http://localhost:5173\n")
	t.Setenv("TODO_ORIGIN", "")
	require.NoError(t, os.Unsetenv("TODO_ORIGIN"))

	require.NoError(t, config.LoadEnv(envFile, filepath.Join(dir, "absent.env")))
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173", cfg.Origin)
}
