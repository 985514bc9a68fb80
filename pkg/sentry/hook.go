package sentry

import (
	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"go.uber.org/zap/zapcore"
)

// LogHook 把不低于 minLevel 的日志转换为 Sentry 事件
// 日志字段放入 Extra，"error" 字段作为异常信息
func (c *Client) LogHook(minLevel zapcore.Level) logger.Hook {
	return logger.HookFunc(func(entry zapcore.Entry, fields []zapcore.Field) bool {
		if entry.Level >= minLevel {
			c.CaptureEvent(eventFromEntry(entry, fields))
		}
		return true
	})
}

func eventFromEntry(entry zapcore.Entry, fields []zapcore.Field) *sentry.Event {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	event := sentry.NewEvent()
	event.Level = levelOf(entry.Level)
	event.Message = entry.Message
	event.Logger = entry.LoggerName
	event.Timestamp = entry.Time
	event.Extra = enc.Fields
	if msg, ok := enc.Fields["error"].(string); ok {
		event.Exception = []sentry.Exception{{Type: entry.Message, Value: msg}}
	}
	if entry.LoggerName != "" {
		event.Tags["logger"] = entry.LoggerName
	}
	return event
}

func levelOf(l zapcore.Level) sentry.Level {
	switch l {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	}
	return sentry.LevelFatal
}
