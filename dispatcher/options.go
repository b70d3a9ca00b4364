package dispatcher

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/next-trace/scg-event-dispatcher/observer"
)

// Channel names, also used as span and log attributes.
const (
	ChannelDomainEvents = "domain_events"
	ChannelNotifies     = "notifies"
)

type config struct {
	domain []observer.Option
	notify []observer.Option
}

// Option configures an EventDispatcher instance.
type Option func(*config)

func both(opt observer.Option) Option {
	return func(c *config) {
		c.domain = append(c.domain, opt)
		c.notify = append(c.notify, opt)
	}
}

// WithLogger sets the logger of both channels.
func WithLogger(l *slog.Logger) Option { return both(observer.WithLogger(l)) }

// WithTracerProvider sets the tracer provider of both channels.
func WithTracerProvider(tp trace.TracerProvider) Option { return both(observer.WithTracerProvider(tp)) }

// WithMiddleware adds handler middleware to both channels.
func WithMiddleware(mw ...observer.Middleware) Option { return both(observer.WithMiddleware(mw...)) }

// WithErrorHook observes handler failures on both channels.
func WithErrorHook(h observer.ErrorHook) Option { return both(observer.WithErrorHook(h)) }

// WithMissingPolicy sets the policy for events without handlers on both channels.
func WithMissingPolicy(p observer.MissingPolicy) Option { return both(observer.WithMissingPolicy(p)) }

// WithDomainPolicy sets the failure policy of the domain channel. The default is FailFast.
func WithDomainPolicy(p observer.FailurePolicy) Option {
	return func(c *config) { c.domain = append(c.domain, observer.WithFailurePolicy(p)) }
}

// WithNotifyPolicy sets the failure policy of the notify channel. The default is FailFast;
// observer.Collect keeps a broken notifier from aborting the use-case.
func WithNotifyPolicy(p observer.FailurePolicy) Option {
	return func(c *config) { c.notify = append(c.notify, observer.WithFailurePolicy(p)) }
}

// WithDomainOptions passes raw observer options to the domain channel only.
func WithDomainOptions(opts ...observer.Option) Option {
	return func(c *config) { c.domain = append(c.domain, opts...) }
}

// WithNotifyOptions passes raw observer options to the notify channel only.
func WithNotifyOptions(opts ...observer.Option) Option {
	return func(c *config) { c.notify = append(c.notify, opts...) }
}
