package otel

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/lk2023060901/lifesim/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerProvider 追踪提供者
type TracerProvider struct {
	config   *Config
	provider *sdktrace.TracerProvider
	closed   atomic.Bool
}

// Option TracerProvider 构建选项
type Option func(*options)

type options struct {
	writer    io.Writer
	setGlobal bool
}

// WithWriter stdout 导出器的输出目标
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithGlobal 注册为进程级 TracerProvider
func WithGlobal() Option {
	return func(o *options) { o.setGlobal = true }
}

// New 创建追踪提供者
func New(cfg *Config, opts ...Option) (*TracerProvider, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	// 布尔开关无法通过合并表达 false
	if cfg != nil {
		newCfg.Enabled = cfg.Enabled
		newCfg.Insecure = cfg.Insecure
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if !newCfg.Enabled {
		return &TracerProvider{config: newCfg}, nil
	}

	exporter, err := createExporter(context.Background(), newCfg, o.writer)
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return &TracerProvider{config: newCfg}, nil
	}

	res := createResource(newCfg)

	processor := sdktrace.NewBatchSpanProcessor(exporter,
		sdktrace.WithBatchTimeout(newCfg.BatchExport.BatchTimeout),
		sdktrace.WithExportTimeout(newCfg.BatchExport.ExportTimeout),
		sdktrace.WithMaxExportBatchSize(newCfg.BatchExport.BatchSize),
		sdktrace.WithMaxQueueSize(newCfg.BatchExport.MaxQueueSize),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(createSampler(newCfg.Sampler)),
	)

	if o.setGlobal {
		otel.SetTracerProvider(provider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	return &TracerProvider{
		config:   newCfg,
		provider: provider,
	}, nil
}

func createResource(cfg *Config) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
	}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

func createSampler(cfg SamplerConfig) sdktrace.Sampler {
	switch cfg.Type {
	case SamplerTypeAlways:
		return sdktrace.AlwaysSample()
	case SamplerTypeNever:
		return sdktrace.NeverSample()
	case SamplerTypeRatio:
		return sdktrace.TraceIDRatioBased(cfg.Ratio)
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// Tracer 获取指定名称的 Tracer，未启用时返回 noop Tracer
func (p *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p == nil || p.provider == nil {
		return noop.NewTracerProvider().Tracer(name, opts...)
	}
	return p.provider.Tracer(name, opts...)
}

// Start 开始一个新的 Span
func (p *TracerProvider) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return p.Tracer(p.config.ServiceName).Start(ctx, spanName, opts...)
}

// Shutdown 关闭提供者，刷新未导出的 Span
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p.closed.Swap(true) {
		return ErrProviderClosed
	}
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// Close 使用配置的超时关闭
func (p *TracerProvider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.ShutdownTimeout)
	defer cancel()
	return p.Shutdown(ctx)
}
