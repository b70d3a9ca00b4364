/*
Package observer provides the per-channel handler registry and its ordered fan-out.
Handlers are keyed by the concrete type of the event and run one after another in the caller's goroutine.
*/
package observer
