// Package sentry 把错误级别日志上报到 Sentry
package sentry

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
)

var (
	ErrInvalidConfig = errors.New("sentry: invalid config")
	ErrClientClosed  = errors.New("sentry: client closed")
)

// Config Sentry 配置，DSN 为空表示不启用
type Config struct {
	DSN         string            `mapstructure:"dsn"`
	Environment string            `mapstructure:"environment"`
	Release     string            `mapstructure:"release"`
	ServerName  string            `mapstructure:"server_name"`
	SampleRate  float64           `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Tags        map[string]string `mapstructure:"tags"`

	// ShutdownTimeout 关闭时等待事件发送的时间
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Debug           bool          `mapstructure:"debug"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Environment:     "production",
		SampleRate:      1.0,
		ShutdownTimeout: 2 * time.Second,
	}
}

// Enabled 是否配置了 DSN
func (c *Config) Enabled() bool {
	return c != nil && c.DSN != ""
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.Enabled() {
		return errors.Wrap(ErrInvalidConfig, "dsn is empty")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return errors.Wrapf(ErrInvalidConfig, "sample rate %v out of range", c.SampleRate)
	}
	return nil
}

func (c *Config) clientOptions() sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              c.DSN,
		Environment:      c.Environment,
		Release:          c.Release,
		ServerName:       c.ServerName,
		SampleRate:       c.SampleRate,
		AttachStacktrace: true,
		Debug:            c.Debug,
	}
}
