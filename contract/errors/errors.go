package errors

import "fmt"

// Error codes for the dispatcher contracts. Keep stable; used across adapters, relay and observers.
const (
	ErrCodeHandlerFailed        = "dispatch.handler_failed"
	ErrCodeHandlerPanic         = "dispatch.handler_panic"
	ErrCodeNoHandlers           = "dispatch.no_handlers"
	ErrCodeNilEvent             = "dispatch.nil_event"
	ErrCodeContextMissing       = "dispatch.context_missing"
	ErrCodeContextTypeMismatch  = "dispatch.context_type_mismatch"
	ErrCodePublisherMissing     = "dispatch.publisher_missing"
	ErrCodePublishFailed        = "dispatch.publish_failed"
	ErrCodeSerializationFailed  = "dispatch.serialization_failed"
	ErrCodeTransportUnsupported = "dispatch.transport_unsupported"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrHandlerFailed        = Code(ErrCodeHandlerFailed)
	ErrHandlerPanic         = Code(ErrCodeHandlerPanic)
	ErrNoHandlers           = Code(ErrCodeNoHandlers)
	ErrNilEvent             = Code(ErrCodeNilEvent)
	ErrContextMissing       = Code(ErrCodeContextMissing)
	ErrContextTypeMismatch  = Code(ErrCodeContextTypeMismatch)
	ErrPublisherMissing     = Code(ErrCodePublisherMissing)
	ErrPublishFailed        = Code(ErrCodePublishFailed)
	ErrSerializationFailed  = Code(ErrCodeSerializationFailed)
	ErrTransportUnsupported = Code(ErrCodeTransportUnsupported)
)

// HandlerError reports a failed handler invocation during a notify.
// It matches both ErrHandlerFailed and the underlying handler error with errors.Is.
type HandlerError struct {
	// Channel is the observer name ("domain_events", "notifies", ...).
	Channel string

	// EventType is the concrete Go type of the event, as printed by reflect.
	EventType string

	// Index is the handler's position in the registration list for EventType.
	Index int

	Err error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %s handler #%d: %v", e.Channel, e.EventType, e.Index, e.Err)
}

// Unwrap exposes both the failure code and the cause.
func (e *HandlerError) Unwrap() []error { return []error{ErrHandlerFailed, e.Err} }
