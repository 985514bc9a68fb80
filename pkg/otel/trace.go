package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	Span            = trace.Span
	SpanStartOption = trace.SpanStartOption
	Attribute       = attribute.KeyValue
)

// 领域属性键
const (
	PerformerIDKey = attribute.Key("lifesim.performer.id")
	ActionTypeKey  = attribute.Key("lifesim.action.type")
	JobIDKey       = attribute.Key("lifesim.job.id")
)

var (
	String = attribute.String
	Int    = attribute.Int
	Int64  = attribute.Int64
	Bool   = attribute.Bool
)

// WithAttributes 设置 span 属性
func WithAttributes(attrs ...Attribute) SpanStartOption {
	return trace.WithAttributes(attrs...)
}

// End 根据 err 设置状态后结束 span
//
//	ctx, span := tp.Start(ctx, "action.execute")
//	defer func() { otel.End(span, err) }()
func End(span Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// SpanFromContext 获取当前 span
func SpanFromContext(ctx context.Context) Span {
	return trace.SpanFromContext(ctx)
}
