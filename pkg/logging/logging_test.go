package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBackendWritesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")

	backend, err := NewLogBackend(LogConfig{
		LogFile:    logFile,
		DebugLevel: "info",
	})
	require.NoError(t, err)

	log := backend.Logger("TSUB")
	log.Infof("hello %s", "world")
	log.Debugf("filtered at info level")
	require.NoError(t, backend.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "hello world")
	assert.Contains(t, content, "TSUB")
	assert.NotContains(t, content, "filtered at info level")
}

func TestLogBackendReusesLoggers(t *testing.T) {
	backend, err := NewLogBackend(LogConfig{DebugLevel: "warn"})
	require.NoError(t, err)
	defer backend.Close()

	first := backend.Logger("SRVR")
	second := backend.Logger("SRVR")
	assert.Equal(t, first, second)
}

func TestLogBackendRejectsBadLevel(t *testing.T) {
	_, err := NewLogBackend(LogConfig{DebugLevel: "loud"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "debug level"))
}
