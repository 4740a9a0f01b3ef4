package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "passman.log")

	log, closeFn, err := New("info", path)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("vault opened", zap.String("vault", "work"))
	require.NoError(t, closeFn())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "vault opened", rec["msg"])
	assert.Equal(t, "work", rec["vault"])
	assert.Equal(t, "info", rec["level"])
}

func TestNewOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passman.log")

	log, closeFn, err := New(LevelOff, path)
	require.NoError(t, err)
	log.Error("dropped")
	require.NoError(t, closeFn())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewBadLevel(t *testing.T) {
	_, _, err := New("loud", filepath.Join(t.TempDir(), "x.log"))
	assert.Error(t, err)
}
