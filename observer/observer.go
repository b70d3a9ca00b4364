package observer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

const instrumentationName = "github.com/next-trace/scg-event-dispatcher/observer"

// Observer is a type-keyed handler registry for one channel.
//
// Handlers for the same type keep their registration order and are not deduplicated.
// Registration is expected to finish before the first Notify; the registry is still
// guarded so a late registration is safe, it just may or may not be seen by an in-flight Notify.
type Observer struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]events.Handler

	channel string
	mw      []Middleware
	failure FailurePolicy
	missing MissingPolicy
	onError ErrorHook
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New constructs an empty Observer for the named channel.
func New(channel string, opts ...Option) *Observer {
	o := &Observer{
		handlers: make(map[reflect.Type][]events.Handler),
		channel:  channel,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Channel returns the channel name the observer was created with.
func (o *Observer) Channel() string { return o.channel }

// Register appends h to the handlers of eventType.
// A nil type or handler is a wiring defect and panics.
func (o *Observer) Register(eventType reflect.Type, h events.Handler) {
	if eventType == nil {
		panic("observer: register " + o.channel + " handler with nil event type")
	}

	if h == nil {
		panic(fmt.Sprintf("observer: register %s handler for %s: nil handler", o.channel, eventType))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.handlers[eventType] = append(o.handlers[eventType], h)
}

// RegisterOf registers h for the concrete type of sample.
// Provide a zero value of the event type, e.g. RegisterOf(UserAdded{}, h).
func (o *Observer) RegisterOf(sample events.Event, h events.Handler) {
	o.Register(reflect.TypeOf(sample), h)
}

// Register registers a typed handler for event type E. E must be a concrete type:
// matching is exact, so an interface type parameter never receives events.
func Register[E events.Event](o *Observer, h events.TypedHandler[E]) {
	if h == nil {
		panic(fmt.Sprintf("observer: register %s handler for %s: nil handler", o.channel, reflect.TypeFor[E]()))
	}

	o.Register(reflect.TypeFor[E](), func(ctx context.Context, e events.Event, data events.Data) error {
		return h(ctx, e.(E), data)
	})
}

// Handlers reports how many handlers are registered for eventType.
func (o *Observer) Handlers(eventType reflect.Type) int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.handlers[eventType])
}

// Types lists the registered event types ordered by name, for wiring audits.
func (o *Observer) Types() []reflect.Type {
	o.mu.RLock()
	out := make([]reflect.Type, 0, len(o.handlers))

	for t := range o.handlers {
		out = append(out, t)
	}
	o.mu.RUnlock()

	slices.SortFunc(out, func(a, b reflect.Type) int { return cmp.Compare(a.String(), b.String()) })

	return out
}

// Notify delivers evs in order. For each event every handler registered for its concrete type
// runs to completion, in registration order, before the next handler or event starts.
// Each invocation receives its own shallow copy of data.
//
// A cancelled ctx skips the handlers that have not started yet and its error is returned.
// Failures are handled according to the FailurePolicy; panics count as failures.
func (o *Observer) Notify(ctx context.Context, evs []events.Event, data events.Data) error {
	ctx, span := o.tracer.Start(ctx, o.channel+".notify", trace.WithAttributes(
		attribute.String("dispatch.channel", o.channel),
		attribute.Int("dispatch.events", len(evs)),
	))
	defer span.End()

	o.logger.DebugContext(ctx, "notify", "channel", o.channel, "events", len(evs))

	err := o.notify(ctx, evs, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func (o *Observer) notify(ctx context.Context, evs []events.Event, data events.Data) error {
	var errs []error

	for _, e := range evs {
		if e == nil {
			if err := o.settle(fmt.Errorf("%s notify: %w", o.channel, derr.ErrNilEvent), &errs); err != nil {
				return err
			}

			continue
		}

		t := reflect.TypeOf(e)
		hs := o.lookup(t)

		if len(hs) == 0 {
			if err := o.unhandled(ctx, t, &errs); err != nil {
				return err
			}

			continue
		}

		for i, h := range hs {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}

			err := o.invoke(ctx, h, e, data.Clone())
			if err == nil {
				continue
			}

			he := &derr.HandlerError{Channel: o.channel, EventType: t.String(), Index: i, Err: err}
			if o.onError != nil {
				o.onError(ctx, e, he)
			}

			if o.failure == Collect {
				o.logger.WarnContext(ctx, "handler failed",
					"channel", o.channel, "event", t.String(), "handler", i, "err", err)
			}

			if err := o.settle(he, &errs); err != nil {
				return err
			}
		}
	}

	return errors.Join(errs...)
}

func (o *Observer) lookup(t reflect.Type) []events.Handler {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return slices.Clone(o.handlers[t])
}

func (o *Observer) unhandled(ctx context.Context, t reflect.Type, errs *[]error) error {
	switch o.missing {
	case MissingLog:
		o.logger.WarnContext(ctx, "no handlers registered", "channel", o.channel, "event", t.String())
	case MissingFail:
		return o.settle(fmt.Errorf("%s notify %s: %w", o.channel, t.String(), derr.ErrNoHandlers), errs)
	}

	return nil
}

// settle applies the failure policy. A non-nil result means the notify must stop and return it.
func (o *Observer) settle(err error, errs *[]error) error {
	if o.failure == FailFast {
		return err
	}

	*errs = append(*errs, err)

	return nil
}

// invoke runs h inside the middleware chain. A panic in h reaches the middlewares as an
// ErrHandlerPanic error; a panic in a middleware itself is converted the same way.
func (o *Observer) invoke(ctx context.Context, h events.Handler, e events.Event, data events.Data) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	final := recovering(h)
	for i := len(o.mw) - 1; i >= 0; i-- {
		final = o.mw[i](final)
	}

	return final(ctx, e, data)
}

func recovering(h events.Handler) events.Handler {
	return func(ctx context.Context, e events.Event, data events.Data) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
			}
		}()

		return h(ctx, e, data)
	}
}

func panicError(r any) error { return fmt.Errorf("%w: %v", derr.ErrHandlerPanic, r) }
