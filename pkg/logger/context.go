package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type performerKey struct{}

// WithPerformerID 在 context 中记录当前操作的 performer
func WithPerformerID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, performerKey{}, id)
}

// PerformerIDFromContext 读取 WithPerformerID 写入的 id
func PerformerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(performerKey{}).(int64)
	return id, ok
}

// contextFields 提取 trace_id、span_id 与 performer_id
func contextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id, ok := PerformerIDFromContext(ctx); ok {
		fields = append(fields, zap.Int64("performer_id", id))
	}
	return fields
}
