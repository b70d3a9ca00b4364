package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/next-trace/scg-event-dispatcher/contract/events"
	"github.com/next-trace/scg-event-dispatcher/observer"
)

const instrumentationName = "github.com/next-trace/scg-event-dispatcher/tracing"

// Middleware opens a span named "handle <event type>" around each handler invocation.
// A nil provider falls back to the global one at call time.
func Middleware(tp trace.TracerProvider) observer.Middleware {
	return func(next events.Handler) events.Handler {
		return func(ctx context.Context, e events.Event, data events.Data) error {
			p := tp
			if p == nil {
				p = otel.GetTracerProvider()
			}

			name := events.TypeName(e)

			ctx, span := p.Tracer(instrumentationName).Start(ctx, "handle "+name,
				trace.WithAttributes(attribute.String("dispatch.event", name)))
			defer span.End()

			err := next(ctx, e, data)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}

			return err
		}
	}
}
