package bridge

import (
	"fmt"
	"log/slog"
)

// SinkPolicy decides what the dispatcher does when the MIDI-out sink rejects
// a message.
type SinkPolicy int

const (
	// SinkAbort stops the dispatcher with ErrSinkDelivery.
	SinkAbort SinkPolicy = iota
	// SinkContinue logs the failure and keeps polling.
	SinkContinue
)

func (p SinkPolicy) String() string {
	switch p {
	case SinkAbort:
		return "abort"
	case SinkContinue:
		return "continue"
	default:
		return fmt.Sprintf("SinkPolicy(%d)", int(p))
	}
}

// ParseSinkPolicy accepts "abort" or "continue".
func ParseSinkPolicy(s string) (SinkPolicy, error) {
	switch s {
	case "abort":
		return SinkAbort, nil
	case "continue":
		return SinkContinue, nil
	default:
		return 0, fmt.Errorf("unknown sink policy %q (want abort or continue)", s)
	}
}

type options struct {
	logger     *slog.Logger
	sinkPolicy SinkPolicy
}

// Option configures a Bridge, Dispatcher or Relay.
type Option func(*options)

// WithLogger sets the logger used for reports.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSinkPolicy sets the behaviour on MIDI-out failures. Default SinkAbort.
func WithSinkPolicy(p SinkPolicy) Option {
	return func(o *options) {
		o.sinkPolicy = p
	}
}

func applyOptions(opts ...Option) options {
	o := options{sinkPolicy: SinkAbort}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
