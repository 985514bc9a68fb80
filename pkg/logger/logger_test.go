package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(t *testing.T, opts ...Option) (*BaseLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts = append(opts, WithWriter(buf))
	l, err := New(&Config{Level: DebugLevel, Format: JSONFormat}, opts...)
	require.NoError(t, err)
	return l, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("nil config uses default", func(t *testing.T) {
		l, err := New(nil)
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("file output without path", func(t *testing.T) {
		_, err := New(&Config{EnableFile: true})
		assert.ErrorIs(t, err, ErrInvalidOutputPath)
	})

	t.Run("no output enabled", func(t *testing.T) {
		_, err := New(&Config{Level: InfoLevel})
		assert.ErrorIs(t, err, ErrNoOutputEnabled)
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lifesim.log")
		l, err := New(&Config{EnableFile: true, OutputPath: path})
		require.NoError(t, err)
		l.Info("hello")
		require.NoError(t, l.Sync())
		assert.FileExists(t, path)
	})
}

func TestKeyValueFields(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.Info("action executed", "performer_id", int64(7), "error", errors.New("boom"), "dangling")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "action executed", lines[0]["msg"])
	assert.EqualValues(t, 7, lines[0]["performer_id"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "dangling", lines[0]["!BADKEY"])
}

func TestNamedAndWithFields(t *testing.T) {
	l, buf := newBufferLogger(t)

	child := l.Named("service").Named("action").WithFields("component", "resolver")
	child.Warn("stamina exhausted")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "service.action", lines[0]["logger"])
	assert.Equal(t, "resolver", lines[0]["component"])
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestContextExtractor(t *testing.T) {
	l, buf := newBufferLogger(t)

	ctx := WithPerformerID(context.Background(), 42)
	l.InfoContext(ctx, "sleep applied")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 42, lines[0]["performer_id"])
	_, hasTrace := lines[0]["trace_id"]
	assert.False(t, hasTrace)
}

func TestHooks(t *testing.T) {
	var seen []zapcore.Level
	drop := HookFunc(func(entry zapcore.Entry, _ []zapcore.Field) bool {
		seen = append(seen, entry.Level)
		return entry.Level != zapcore.DebugLevel
	})
	l, buf := newBufferLogger(t, WithHooks(drop))

	l.Debug("dropped")
	l.Error("kept")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.ErrorLevel}, seen)
}

func TestNewRotationWriter(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rot.log")

	w, err := NewRotationWriter(&RotationConfig{Type: RotationBySize, MaxSize: 1}, out)
	require.NoError(t, err)
	assert.NotNil(t, w)

	w, err = NewRotationWriter(&RotationConfig{Type: RotationByTime, RotationTime: "bogus"}, out)
	require.NoError(t, err)
	assert.NotNil(t, w)
}
