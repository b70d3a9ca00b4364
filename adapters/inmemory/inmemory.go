package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

// Message is one recorded publish.
type Message struct {
	Event   events.Event
	Options events.PublishOptions
}

// Publisher is a thread-safe in-memory implementation of events.Publisher.
// It records relayed notifies for testing and examples.
type Publisher struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

// Ensure Publisher implements the contract.
var _ events.Publisher = (*Publisher)(nil)

// New creates a new in-memory publisher.
func New() *Publisher { return &Publisher{} }

// Publish records e unless a failure was configured with FailWith.
func (p *Publisher) Publish(ctx context.Context, e events.Event, opts events.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	p.messages = append(p.messages, Message{Event: e, Options: opts})

	return nil
}

// FailWith makes subsequent publishes return err. A nil err restores normal behavior.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Messages returns a copy of everything published so far.
func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.messages)
}

// Topics returns the topics of the recorded messages in publish order.
func (p *Publisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Options.Topic)
	}

	return out
}

// Reset drops recorded messages.
func (p *Publisher) Reset() {
	p.mu.Lock()
	p.messages = nil
	p.mu.Unlock()
}
