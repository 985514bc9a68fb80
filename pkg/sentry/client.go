package sentry

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/lifesim/pkg/config"
)

// Option 客户端选项
type Option func(*sentry.ClientOptions)

// WithBeforeSend 发送前回调，返回 nil 丢弃事件
func WithBeforeSend(fn func(*sentry.Event) *sentry.Event) Option {
	return func(o *sentry.ClientOptions) {
		o.BeforeSend = func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return fn(event)
		}
	}
}

// Client 独立 Hub 的 Sentry 客户端，不修改全局 Hub
type Client struct {
	hub    *sentry.Hub
	config *Config
	closed atomic.Bool

	captured atomic.Uint64
}

// New 创建客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	options := merged.clientOptions()
	for _, opt := range opts {
		opt(&options)
	}
	client, err := sentry.NewClient(options)
	if err != nil {
		return nil, errors.Wrap(err, "sentry: create client")
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range merged.Tags {
			scope.SetTag(k, v)
		}
	})

	return &Client{hub: hub, config: merged}, nil
}

// CaptureEvent 上报事件
func (c *Client) CaptureEvent(event *sentry.Event) {
	if c.closed.Load() {
		return
	}
	c.captured.Add(1)
	c.hub.CaptureEvent(event)
}

// Captured 已提交的事件数
func (c *Client) Captured() uint64 {
	return c.captured.Load()
}

// Close 等待事件发送后关闭
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	c.hub.Flush(c.config.ShutdownTimeout)
	return nil
}
