package dispatcher

import (
	"context"

	"github.com/next-trace/scg-event-dispatcher/contract/events"
	"github.com/next-trace/scg-event-dispatcher/observer"
)

// EventDispatcher publishes events on two independent channels.
//
// The handler registries are shared by every dispatcher derived with Scope; the context data is not.
// data is never mutated by a publish: each call hands its handlers a shallow copy, so top-level
// writes never leak between calls. Values reachable through data (a unit of work, a client) are
// shared by reference and must manage their own concurrency.
type EventDispatcher struct {
	domainEvents *observer.Observer
	notifies     *observer.Observer
	data         events.Data
}

var _ events.Dispatcher = (*EventDispatcher)(nil)

// New constructs a dispatcher with fresh registries and the given context data.
func New(data events.Data, opts ...Option) *EventDispatcher {
	var c config
	for _, opt := range opts {
		opt(&c)
	}

	return &EventDispatcher{
		domainEvents: observer.New(ChannelDomainEvents, c.domain...),
		notifies:     observer.New(ChannelNotifies, c.notify...),
		data:         data.Clone(),
	}
}

// Scope returns a dispatcher sharing d's registries with its own context data.
// Use it to bind per-request collaborators without re-registering handlers.
func (d *EventDispatcher) Scope(data events.Data) *EventDispatcher {
	return &EventDispatcher{
		domainEvents: d.domainEvents,
		notifies:     d.notifies,
		data:         data.Clone(),
	}
}

// Data returns a copy of the dispatcher's context data.
func (d *EventDispatcher) Data() events.Data { return d.data.Clone() }

// DomainEvents exposes the domain channel observer.
func (d *EventDispatcher) DomainEvents() *observer.Observer { return d.domainEvents }

// Notifies exposes the notify channel observer.
func (d *EventDispatcher) Notifies() *observer.Observer { return d.notifies }

// PublishEvents delivers evs to the domain channel with a snapshot of the context data.
func (d *EventDispatcher) PublishEvents(ctx context.Context, evs ...events.Event) error {
	return d.domainEvents.Notify(ctx, evs, d.data.Clone())
}

// PublishNotifies delivers evs to the notify channel with a snapshot of the context data.
func (d *EventDispatcher) PublishNotifies(ctx context.Context, evs ...events.Event) error {
	return d.notifies.Notify(ctx, evs, d.data.Clone())
}

// RegisterDomainEvent registers h for the concrete type of sample on the domain channel.
func (d *EventDispatcher) RegisterDomainEvent(sample events.Event, h events.Handler) {
	d.domainEvents.RegisterOf(sample, h)
}

// RegisterNotify registers h for the concrete type of sample on the notify channel.
func (d *EventDispatcher) RegisterNotify(sample events.Event, h events.Handler) {
	d.notifies.RegisterOf(sample, h)
}

// OnDomainEvent registers a typed domain handler for E.
func OnDomainEvent[E events.Event](d *EventDispatcher, h events.TypedHandler[E]) {
	observer.Register(d.domainEvents, h)
}

// OnNotify registers a typed notify handler for E.
func OnNotify[E events.Event](d *EventDispatcher, h events.TypedHandler[E]) {
	observer.Register(d.notifies, h)
}
