// Package bridge moves MIDI between a serial transport and a MIDI host.
//
// Serial bytes are framed in groups of three, decoded and sent to a Sink by
// the Dispatcher, which owns the transport and runs on the caller's
// goroutine. MIDI arriving from the host is handed to the Relay on whatever
// goroutine the driver uses; the Relay only pushes bytes onto a Queue, and
// the Dispatcher drains that queue to serial on every iteration.
package bridge

import (
	"context"
	"log/slog"
)

// Bridge is the state handed to both the polling loop and the MIDI-in
// registration. The Queue is the only thing the two sides share.
type Bridge struct {
	Queue      *Queue
	Relay      *Relay
	Dispatcher *Dispatcher
	logger     *slog.Logger
}

// New wires a queue, relay and dispatcher around t and sink.
func New(t Transport, sink Sink, opts ...Option) *Bridge {
	o := applyOptions(opts...)
	q := NewQueue()
	return &Bridge{
		Queue:      q,
		Relay:      NewRelay(q, opts...),
		Dispatcher: NewDispatcher(t, sink, q, opts...),
		logger:     o.logger,
	}
}

// Run drives the dispatcher until ctx is cancelled or a fatal error occurs,
// then closes the queue so later callbacks stop the relay instead of
// enqueueing into nothing.
func (b *Bridge) Run(ctx context.Context) error {
	err := b.Dispatcher.Run(ctx)
	if dropped := b.Queue.Close(); dropped > 0 {
		b.logger.Warn("bridge: discarded queued bytes on shutdown", "bytes", dropped)
	}
	s := b.Dispatcher.Stats()
	b.logger.Info("bridge: stopped",
		"forwarded", s.Forwarded,
		"unrecognized", s.Unrecognized,
		"read_errors", s.ReadErrors,
		"sink_errors", s.SinkErrors,
		"bytes_written", s.BytesWritten,
	)
	return err
}
