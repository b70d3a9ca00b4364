package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
}

// Adapter implements events.Publisher using an injected NATS-like Client.
type Adapter struct {
	Client Client
}

// Ensure Adapter implements the contract.
var _ events.Publisher = (*Adapter)(nil)

// New creates a new NATS adapter instance with the provided client.
func New(c Client) *Adapter { return &Adapter{Client: c} }

// Publish sends e as JSON to opts.Topic, or to the event's derived topic when empty.
func (a *Adapter) Publish(ctx context.Context, e events.Event, opts events.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats publish: %w", derr.ErrPublishFailed)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("nats publish serialize: %w", errors.Join(derr.ErrSerializationFailed, err))
	}

	if err := a.Client.Publish(subjectFor(e, opts), body, headersFor(opts)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats publish: %w", errors.Join(derr.ErrPublishFailed, err))
	}

	return nil
}

// helpers

func subjectFor(e events.Event, o events.PublishOptions) string {
	if o.Topic != "" {
		return o.Topic
	}

	return events.TopicOf(e)
}

func headersFor(o events.PublishOptions) map[string]string {
	h := make(map[string]string, len(o.Headers)+1)
	maps.Copy(h, o.Headers)

	if o.Key != "" {
		h["key"] = o.Key
	}

	return h
}
