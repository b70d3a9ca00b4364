package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	amqp "github.com/rabbitmq/amqp091-go"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

// Adapter implements events.Publisher on top of an AMQP-like Publisher.
// Exchange is empty for the default exchange, where the topic is the queue name.
type Adapter struct {
	Publisher Publisher
	Exchange  string
}

var _ events.Publisher = (*Adapter)(nil)

func New(p Publisher) *Adapter { return &Adapter{Publisher: p} }

// NewWithExchange publishes to the named exchange using the topic as routing key.
func NewWithExchange(p Publisher, exchange string) *Adapter {
	return &Adapter{Publisher: p, Exchange: exchange}
}

func (a *Adapter) Publish(ctx context.Context, e events.Event, opts events.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq publish: %w", derr.ErrPublishFailed)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("rabbitmq publish serialize: %w", errors.Join(derr.ErrSerializationFailed, err))
	}

	msg := PubMsg{
		Exchange:   a.Exchange,
		RoutingKey: routingFor(e, opts),
		Body:       body,
		Headers:    headersFor(opts),
	}
	if err := a.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq publish: %w", errors.Join(derr.ErrPublishFailed, err))
	}

	return nil
}

func routingFor(e events.Event, o events.PublishOptions) string {
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

func toTable(headers map[string]string) amqp.Table {
	if len(headers) == 0 {
		return nil
	}

	h := amqp.Table{}
	for k, v := range headers {
		h[k] = v
	}

	return h
}

type amqpChannelPublisher struct{ ch *amqp.Channel }

func (p amqpChannelPublisher) Publish(ctx context.Context, m PubMsg) error {
	return p.ch.PublishWithContext(
		ctx,
		m.Exchange,
		m.RoutingKey,
		false,
		false,
		amqp.Publishing{
			Headers:     toTable(m.Headers),
			Body:        m.Body,
			ContentType: "application/json",
		},
	)
}

// NewWithAMQPChannel publishes on an existing channel to the default exchange.
func NewWithAMQPChannel(ch *amqp.Channel) *Adapter {
	return &Adapter{Publisher: amqpChannelPublisher{ch: ch}}
}
