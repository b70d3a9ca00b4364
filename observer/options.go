package observer

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

// FailurePolicy decides what a handler failure does to the rest of a notify.
type FailurePolicy int

const (
	// FailFast stops the fan-out at the first failure and returns it.
	FailFast FailurePolicy = iota
	// Collect logs each failure, keeps invoking the remaining handlers and returns all failures joined.
	Collect
)

func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return "fail_fast"
	case Collect:
		return "collect"
	default:
		return "unknown"
	}
}

// MissingPolicy decides what happens to an event whose type has no handlers.
type MissingPolicy int

const (
	// MissingIgnore drops the event silently.
	MissingIgnore MissingPolicy = iota
	// MissingLog drops the event with a warning.
	MissingLog
	// MissingFail reports ErrNoHandlers, subject to the FailurePolicy.
	MissingFail
)

// Middleware wraps handler execution. Middlewares are executed in registration order.
type Middleware func(next events.Handler) events.Handler

// ErrorHook observes every handler failure before the failure policy is applied.
type ErrorHook func(ctx context.Context, event events.Event, err *derr.HandlerError)

// Option configures an Observer instance.
type Option func(*Observer)

// WithLogger sets the logger. A nil logger keeps the default, which discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *Observer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFailurePolicy sets the handler failure policy. The default is FailFast.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *Observer) { o.failure = p }
}

// WithMissingPolicy sets the policy for events without handlers. The default is MissingIgnore.
func WithMissingPolicy(p MissingPolicy) Option {
	return func(o *Observer) { o.missing = p }
}

// WithMiddleware appends handler middleware.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *Observer) { o.mw = append(o.mw, mw...) }
}

// WithErrorHook sets a callback invoked for each handler failure.
func WithErrorHook(h ErrorHook) Option {
	return func(o *Observer) { o.onError = h }
}

// WithTracerProvider sets the provider used for notify spans. The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Observer) {
		if tp != nil {
			o.tracer = tp.Tracer(instrumentationName)
		}
	}
}
