package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]LogLevel{
		"debug":   DEBUG,
		" INFO ":  INFO,
		"warning": WARN,
		"warn":    WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.Equal(t, "warn", WARN.String())
}

func TestLoggerWritesToOutputAndFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "nested", "cpulse.log")

	logger, err := NewLogger(Config{Level: INFO, Output: &buf, OutputFile: path, JSONFormat: true})
	require.NoError(t, err)

	logger.With("component", "test").Info("computed", "community", "octo/hello")
	logger.Debug("hidden")
	require.NoError(t, logger.Close())

	assert.Contains(t, buf.String(), `"community":"octo/hello"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.NotContains(t, buf.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "computed")
}

func TestRotation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644))

	logger, err := NewLogger(Config{Output: &bytes.Buffer{}, OutputFile: path, MaxSize: 32})
	require.NoError(t, err)
	defer logger.Close()

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
}

func TestDefaultConfigNamesFile(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("logs", false)
	assert.True(t, strings.HasPrefix(filepath.Base(cfg.OutputFile), "cpulse_"))
	assert.True(t, cfg.JSONFormat)
	assert.Equal(t, INFO, cfg.Level)

	assert.Empty(t, DefaultConfig("", true).OutputFile)
	assert.NotNil(t, Discard())
}
