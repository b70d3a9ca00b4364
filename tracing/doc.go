/*
Package tracing wires OpenTelemetry into the dispatcher.

Setup installs a global tracer provider from Config, Middleware opens a span around every handler
invocation and Propagator injects the active trace context into relayed notify headers.
*/
package tracing
