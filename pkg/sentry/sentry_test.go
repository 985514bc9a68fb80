package sentry

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const testDSN = "https://public@sentry.example.com/1"

type recorder struct {
	mu     sync.Mutex
	events []*sentry.Event
}

// keep 记录事件并丢弃，测试不发网络请求
func (r *recorder) keep(event *sentry.Event) *sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) all() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.events...)
}

func TestConfigValidate(t *testing.T) {
	var empty *Config
	assert.False(t, empty.Enabled())
	assert.ErrorIs(t, (&Config{}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&Config{DSN: testDSN, SampleRate: 2}).Validate(), ErrInvalidConfig)
	assert.NoError(t, (&Config{DSN: testDSN, SampleRate: 0.5}).Validate())
}

func TestLogHookReportsErrors(t *testing.T) {
	rec := &recorder{}
	c, err := New(&Config{DSN: testDSN, Tags: map[string]string{"service": "lifesim"}}, WithBeforeSend(rec.keep))
	require.NoError(t, err)

	hook := c.LogHook(zapcore.ErrorLevel)
	entry := zapcore.Entry{Level: zapcore.InfoLevel, Message: "action rejected", Time: time.Now()}
	assert.True(t, hook.OnWrite(entry, nil))
	assert.Zero(t, c.Captured())

	entry = zapcore.Entry{Level: zapcore.ErrorLevel, Message: "save failed", LoggerName: "service.job", Time: time.Now()}
	assert.True(t, hook.OnWrite(entry, []zapcore.Field{
		zap.Int64("performer_id", 7),
		zap.Error(errors.New("connection reset")),
	}))
	assert.Equal(t, uint64(1), c.Captured())

	events := rec.all()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, sentry.LevelError, ev.Level)
	assert.Equal(t, "save failed", ev.Message)
	assert.Equal(t, "service.job", ev.Tags["logger"])
	assert.Equal(t, "lifesim", ev.Tags["service"])
	assert.Equal(t, int64(7), ev.Extra["performer_id"])
	require.Len(t, ev.Exception, 1)
	assert.Equal(t, "connection reset", ev.Exception[0].Value)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
	c.CaptureEvent(&sentry.Event{Message: "after close"})
	assert.Equal(t, uint64(1), c.Captured())
}

func TestLogHookWithLogger(t *testing.T) {
	rec := &recorder{}
	c, err := New(&Config{DSN: testDSN}, WithBeforeSend(rec.keep))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	l, err := logger.New(&logger.Config{Level: logger.DebugLevel},
		logger.WithWriter(&discard{}),
		logger.WithHooks(c.LogHook(zapcore.WarnLevel)),
	)
	require.NoError(t, err)

	l.Info("fine")
	l.Warn("cache degraded", "layer", "redis")
	l.Error("storage down", "error", errors.New("timeout"))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, sentry.LevelWarning, events[0].Level)
	assert.Equal(t, "redis", events[0].Extra["layer"])
	assert.Equal(t, "timeout", events[1].Exception[0].Value)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
