package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/chase3718/serimidi/midi"
	"github.com/chase3718/serimidi/serialport"
)

// Transport is the serial side. Read must return (0, nil) when its timeout
// elapses with nothing to read.
type Transport interface {
	io.Reader
	io.Writer
}

// Sink accepts one serialized MIDI message.
type Sink interface {
	Send(data []byte) error
}

// Stats counts what the dispatcher has done since it was created.
type Stats struct {
	Forwarded    uint64
	Unrecognized uint64
	ReadErrors   uint64
	SinkErrors   uint64
	BytesWritten uint64
}

// Dispatcher owns the transport. Each iteration it reads toward one 3-byte
// frame, forwards complete frames to the sink, then writes out whatever the
// relay has queued. It is not safe for concurrent use.
type Dispatcher struct {
	transport Transport
	sink      Sink
	queue     *Queue
	logger    *slog.Logger
	policy    SinkPolicy

	frame   midi.Frame
	pending int    // bytes of frame filled so far
	drain   []byte // reused between iterations
	stats   Stats
}

// NewDispatcher returns a dispatcher that owns t and drains q.
func NewDispatcher(t Transport, sink Sink, q *Queue, opts ...Option) *Dispatcher {
	o := applyOptions(opts...)
	return &Dispatcher{
		transport: t,
		sink:      sink,
		queue:     q,
		logger:    o.logger,
		policy:    o.sinkPolicy,
	}
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return d.stats
}

// Run calls PollAndDispatch until ctx is cancelled (returns nil) or an
// iteration reports a fatal error (returned as is).
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := d.PollAndDispatch(); err != nil {
			return err
		}
	}
}

// PollAndDispatch performs one loop iteration. The queue is drained even when
// the read side fails. Only fatal conditions are returned: a lost device, a
// sink failure under SinkAbort, and a failed serial write.
func (d *Dispatcher) PollAndDispatch() error {
	readErr := d.poll()
	writeErr := d.drainQueue()
	return errors.Join(readErr, writeErr)
}

func (d *Dispatcher) poll() error {
	n, err := d.transport.Read(d.frame[d.pending:])
	if n > 0 {
		d.pending += n
	}

	var fatal error
	if d.pending == midi.FrameSize {
		d.pending = 0
		fatal = d.dispatch(d.frame)
	} else if n > 0 {
		d.logger.Debug("serial: partial frame", "have", d.pending, "want", midi.FrameSize)
	}

	if err != nil {
		if serialport.IsDisconnect(err) {
			d.logger.Error("serial: device lost", "err", err)
			return errors.Join(fatal, fmt.Errorf("serial read: %w", err))
		}
		d.stats.ReadErrors++
		d.logger.Error("serial: read error", "err", err)
	}
	return fatal
}

func (d *Dispatcher) dispatch(f midi.Frame) error {
	msg, err := midi.Decode(f)
	if err != nil {
		d.stats.Unrecognized++
		d.logger.Warn("midi: unknown message, discarded", "data", hexBytes(f[:]), "err", err)
		return nil
	}

	if err := d.sink.Send(msg.Bytes()); err != nil {
		d.stats.SinkErrors++
		if d.policy == SinkContinue {
			d.logger.Error("midi: send failed, continuing", "msg", msg.Kind.String(), "err", err)
			return nil
		}
		d.logger.Error("midi: send failed", "msg", msg.Kind.String(), "err", err)
		return fmt.Errorf("%w: %s: %w", ErrSinkDelivery, msg.Kind, err)
	}

	d.stats.Forwarded++
	switch msg.Kind {
	case midi.NoteOn:
		d.logger.Info("midi: note on", "ch", displayChannel(msg), "pitch", msg.Data1, "vel", msg.Data2)
	case midi.NoteOff:
		d.logger.Info("midi: note off", "ch", displayChannel(msg), "pitch", msg.Data1)
	case midi.ControlChange:
		d.logger.Info("midi: control change", "ch", displayChannel(msg), "cc", msg.Data1, "value", msg.Data2)
	}
	return nil
}

// displayChannel is the 1-16 channel number players know.
func displayChannel(m midi.Message) int {
	return int(m.Channel) + 1
}

// drainQueue writes queued bytes one at a time in arrival order.
func (d *Dispatcher) drainQueue() error {
	d.drain = d.queue.TryReceiveAll(d.drain[:0])
	for i := range d.drain {
		if _, err := d.transport.Write(d.drain[i : i+1]); err != nil {
			d.logger.Error("serial: write failed", "err", err, "dropped", len(d.drain)-i)
			return fmt.Errorf("%w: %w", ErrSerialWrite, err)
		}
		d.stats.BytesWritten++
	}
	if len(d.drain) > 0 && d.logger.Enabled(context.Background(), slog.LevelDebug) {
		d.logger.Debug("serial: relayed", "bytes", len(d.drain), "data", hexBytes(d.drain))
	}
	return nil
}

// hexBytes is formatted only when a handler actually emits the record.
type hexBytes []byte

func (h hexBytes) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprintf("% X", []byte(h)))
}
