package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

// Propagator writes the trace context of ctx into outbound notify headers.
type Propagator struct {
	p propagation.TextMapPropagator
}

var _ events.HeaderPropagator = Propagator{}

// NewPropagator wraps p. With a nil p the global text map propagator is used at inject time.
func NewPropagator(p propagation.TextMapPropagator) Propagator { return Propagator{p: p} }

func (p Propagator) Inject(ctx context.Context, headers map[string]string) {
	tm := p.p
	if tm == nil {
		tm = otel.GetTextMapPropagator()
	}

	tm.Inject(ctx, propagation.MapCarrier(headers))
}
