package events

import "context"

// Handler reacts to one event. data is the publish call's private snapshot of the dispatcher's context.
// Handlers registered on the domain channel usually run inside the caller's transaction boundary,
// so returning an error is the way to abort the surrounding use-case.
type Handler func(ctx context.Context, event Event, data Data) error

// TypedHandler is the generic form used by the typed registration helpers.
type TypedHandler[E Event] func(ctx context.Context, event E, data Data) error
