package lazy

import (
	"io"

	"github.com/charmbracelet/log"
)

// Option configures a Proxy or Forwarder.
type Option func(*options)

type options struct {
	name         string
	eventEmitter bool
	maxListeners int
	logger       *log.Logger
	observer     Observer
}

func newOptions(opts []Option) options {
	o := options{maxListeners: DefaultMaxListeners}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	return o
}

// WithName labels the proxy in logs and metrics. Defaults to the instance type.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithEventEmitter makes the first construction attach an EventEmitter to the
// instance before any forwarded method runs.
func WithEventEmitter() Option {
	return func(o *options) { o.eventEmitter = true }
}

// WithMaxListeners sets the per-event listener count above which the attached
// emitter logs a leak warning. Zero disables the warning.
func WithMaxListeners(n int) Option {
	return func(o *options) { o.maxListeners = n }
}

// WithLogger sets the logger used for construction and emitter diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver registers an Observer for construction and forwarding events.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}
