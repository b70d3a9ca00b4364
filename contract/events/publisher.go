package events

import "context"

// Publisher abstracts sending a notify event to a broker or other outbound transport.
// Library users provide an implementation that maps to Kafka/NATS/RabbitMQ etc.
type Publisher interface {
	Publish(ctx context.Context, evt Event, opts PublishOptions) error
}
