package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/idilsaglam/todosync/internal/logging"
)

func TestNew_NopByDefault(t *testing.T) {
	l, cleanup, err := logging.New(logging.Options{Level: "info"})
	require.NoError(t, err)
	defer cleanup()
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))
}

func TestNew_FileGetsJSONAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.log")
	l, cleanup, err := logging.New(logging.Options{Level: "warn", File: path})
	require.NoError(t, err)

	l.Info("skipped")
	l.Warn("todo store operation failed", zap.String("op", "delete"))
	cleanup()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "todo store operation failed", entry["msg"])
	assert.Equal(t, "delete", entry["op"])
}

func TestNew_VerboseWritesDebug(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup, err := logging.New(logging.Options{Verbose: true, Stderr: &buf})
	require.NoError(t, err)
	l.Debug("todo api request")
	cleanup()
	assert.Contains(t, buf.String(), "todo api request")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, _, err := logging.New(logging.Options{Level: "loud"})
	assert.Error(t, err)
}
