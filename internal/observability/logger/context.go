package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	obscontext "github.com/shopbooks/shopbooks/internal/observability/context"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
)

// FromContext returns the process logger enriched with the trace, request,
// and shop identifiers carried on the context.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if ctx == nil {
		return log
	}

	fields := make([]zap.Field, 0, 4)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if shopID, ok := shopcontext.ShopIDFromContext(ctx); ok {
		fields = append(fields, zap.String("shop_id", shopID.String()))
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}
