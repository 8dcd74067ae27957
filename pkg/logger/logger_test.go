package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestInitWithWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn")
	defer func() { Log = nil }()

	Info("ignored_event", "k", 1)
	Warn("kept_event", "k", 2)

	out := buf.String()
	assert.NotContains(t, out, "ignored_event")
	assert.Contains(t, out, "kept_event")
	assert.Contains(t, out, "k=2")
}

func TestNilLoggerIsSafe(t *testing.T) {
	Log = nil
	Debug("x")
	Info("x")
	Warn("x")
	Error("x")
}

func TestFileSinkFlushesOnSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	t.Setenv("FOSSCORD_LOG_SINK", "file:"+path)
	InitWithLevel("debug")
	Debug("file_sink_event", "id", "42")
	Sync()
	Log = nil

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "file_sink_event"))
}
