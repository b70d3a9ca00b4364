// Package relay turns an outbound transport into a notify handler.
package relay

import (
	"context"
	"fmt"
	"maps"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

// HeaderEventType carries the relayed event's type name.
const HeaderEventType = "event-type"

// Relay forwards every event it handles to a Publisher.
type Relay struct {
	pub        events.Publisher
	topic      func(events.Event) string
	key        func(events.Event) string
	headers    map[string]string
	propagator events.HeaderPropagator
}

// Option configures a Relay.
type Option func(*Relay)

// WithTopic overrides topic resolution. The default is events.TopicOf.
func WithTopic(fn func(events.Event) string) Option {
	return func(r *Relay) { r.topic = fn }
}

// WithKey sets a partition/routing key function.
func WithKey(fn func(events.Event) string) Option {
	return func(r *Relay) { r.key = fn }
}

// WithHeaders adds static headers to every message.
func WithHeaders(h map[string]string) Option {
	return func(r *Relay) { maps.Copy(r.headers, h) }
}

// WithPropagator injects the handler context (e.g. trace context) into message headers.
func WithPropagator(p events.HeaderPropagator) Option {
	return func(r *Relay) {
		if p != nil {
			r.propagator = p
		}
	}
}

// New constructs a Relay over pub.
func New(pub events.Publisher, opts ...Option) *Relay {
	r := &Relay{
		pub:        pub,
		topic:      events.TopicOf,
		headers:    map[string]string{},
		propagator: events.NopHeaderPropagator{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Forward is shorthand for New(pub, opts...).Handle.
func Forward(pub events.Publisher, opts ...Option) events.Handler {
	return New(pub, opts...).Handle
}

// Handle publishes e. It satisfies events.Handler; the context data is not forwarded.
func (r *Relay) Handle(ctx context.Context, e events.Event, _ events.Data) error {
	if r.pub == nil {
		return fmt.Errorf("relay %s: %w", events.TypeName(e), derr.ErrPublisherMissing)
	}

	// copy headers to avoid sharing the static map with the transport
	hdrs := make(map[string]string, len(r.headers)+4)
	maps.Copy(hdrs, r.headers)
	hdrs[HeaderEventType] = events.TypeName(e)

	r.propagator.Inject(ctx, hdrs)

	opts := events.PublishOptions{Topic: r.topic(e), Headers: hdrs}
	if r.key != nil {
		opts.Key = r.key(e)
	}

	return r.pub.Publish(ctx, e, opts)
}
