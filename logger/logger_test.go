package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"trace":   LogLevelTrace,
		"DEBUG":   LogLevelDebug,
		" info ":  LogLevelInfo,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"bogus":   LogLevelInfo,
		"":        LogLevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), "level for %q", in)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	ll := New(&buf, LogLevelWarn)
	ll.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	ll.Debug("hidden %d", 1)
	ll.Info("hidden %d", 2)
	ll.Warn("shown %d", 3)
	ll.Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "2026/01/02 03:04:05 [WARN] shown 3")
	assert.Contains(t, out, "[ERROR] shown 4")
}

func TestTraceDisabledIsNoop(t *testing.T) {
	var buf bytes.Buffer
	SetGlobal(New(&buf, LogLevelInfo))
	defer SetGlobal(nil)

	Trace("quiet")()
	assert.Empty(t, buf.String())
}

func TestTraceEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetGlobal(New(&buf, LogLevelTrace))
	defer SetGlobal(nil)

	Trace("op")()
	assert.Contains(t, buf.String(), "[TRACE] op: ")
}

func TestRotationKeepsLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "griddiff.log")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	require.NoError(t, err)

	ll := New(f, LogLevelInfo)
	ll.SetMaxLines(3)
	for i := 0; i < 5; i++ {
		ll.Info("line %d", i)
	}
	require.NoError(t, ll.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[2], "line 4")
	assert.NotContains(t, string(data), "line 0")
}

func TestOpenEmptyPathUsesStderr(t *testing.T) {
	ll, err := Open("", LogLevelError)
	require.NoError(t, err)
	defer SetGlobal(nil)
	assert.Nil(t, ll.file)
	assert.NoError(t, ll.Close())
}
