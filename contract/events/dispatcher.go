package events

import "context"

// Dispatcher is the publish side of an event dispatcher.
// Use-cases depend on this contract instead of the concrete dispatcher package.
type Dispatcher interface {
	// PublishEvents delivers committed domain facts to the domain channel.
	PublishEvents(ctx context.Context, evs ...Event) error

	// PublishNotifies delivers externally observable outcomes to the notify channel.
	PublishNotifies(ctx context.Context, evs ...Event) error
}
