package events

import (
	"fmt"
	"maps"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
)

// Data is the named context forwarded to every handler of a publish call,
// typically shared collaborators such as a unit of work.
type Data map[string]any

// Clone returns a shallow copy. Top-level keys are independent, values are shared by reference.
// A nil Data clones to an empty, writable map.
func (d Data) Clone() Data {
	if d == nil {
		return Data{}
	}

	return maps.Clone(d)
}

// Value returns data[key] as T. A missing key or a value of another type is a wiring defect
// and is reported as ErrContextMissing or ErrContextTypeMismatch.
func Value[T any](d Data, key string) (T, error) {
	var zero T

	raw, ok := d[key]
	if !ok {
		return zero, fmt.Errorf("context %q: %w", key, derr.ErrContextMissing)
	}

	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("context %q is %T: %w", key, raw, derr.ErrContextTypeMismatch)
	}

	return v, nil
}
