package events

import "reflect"

// Event is a marker interface for facts that already happened.
// The dispatch key is the event's concrete Go type; values and pointers of the same struct are distinct keys.
// Events should be treated as immutable once published.
type Event interface{}

// Routable events choose their own outbound topic when relayed to a transport.
type Routable interface{ Topic() string }

// TopicPrefix prefixes derived topics of events that are not Routable.
const TopicPrefix = "notify."

// TypeName returns the bare type name of e, dereferencing pointers.
// Unnamed types fall back to their full type string.
func TypeName(e Event) string {
	t := reflect.TypeOf(e)
	if t == nil {
		return "<nil>"
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" { // unnamed (e.g., map/struct literal)
		name = t.String()
	}

	return name
}

// TopicOf returns e.Topic() for Routable events and TopicPrefix+TypeName(e) otherwise.
func TopicOf(e Event) string {
	if r, ok := e.(Routable); ok {
		return r.Topic()
	}

	return TopicPrefix + TypeName(e)
}
