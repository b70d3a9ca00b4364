// Package memory builds an in-process dispatcher that records every handler delivery,
// for tests and local runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/next-trace/scg-event-dispatcher/contract/events"
	"github.com/next-trace/scg-event-dispatcher/dispatcher"
	"github.com/next-trace/scg-event-dispatcher/observer"
)

// Delivery is one handler invocation.
type Delivery struct {
	Channel string
	Event   events.Event
	Err     error
}

// Recorder collects deliveries from both channels. It is safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func (r *Recorder) middleware(channel string) observer.Middleware {
	return func(next events.Handler) events.Handler {
		return func(ctx context.Context, e events.Event, data events.Data) error {
			err := next(ctx, e, data)

			r.mu.Lock()
			r.deliveries = append(r.deliveries, Delivery{Channel: channel, Event: e, Err: err})
			r.mu.Unlock()

			return err
		}
	}
}

// Deliveries returns a snapshot of all deliveries in order.
func (r *Recorder) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.deliveries)
}

// Events returns the events delivered on channel, one entry per handler invocation.
func (r *Recorder) Events(channel string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []events.Event

	for _, d := range r.deliveries {
		if d.Channel == channel {
			out = append(out, d.Event)
		}
	}

	return out
}

// Reset drops all recorded deliveries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.deliveries = nil
	r.mu.Unlock()
}

// New constructs a dispatcher whose handler deliveries on both channels are recorded.
// The recording middleware wraps every other middleware, so it sees the final handler result.
func New(data events.Data, opts ...dispatcher.Option) (*dispatcher.EventDispatcher, *Recorder) {
	rec := &Recorder{}

	all := append([]dispatcher.Option{
		dispatcher.WithDomainOptions(observer.WithMiddleware(rec.middleware(dispatcher.ChannelDomainEvents))),
		dispatcher.WithNotifyOptions(observer.WithMiddleware(rec.middleware(dispatcher.ChannelNotifies))),
	}, opts...)

	return dispatcher.New(data, all...), rec
}
