package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Relay receives MIDI-in data on the host driver's goroutine and hands the
// raw bytes to the queue. It never touches the serial port.
type Relay struct {
	queue   *Queue
	logger  *slog.Logger
	stopped atomic.Bool
}

// NewRelay returns a relay feeding q.
func NewRelay(q *Queue, opts ...Option) *Relay {
	o := applyOptions(opts...)
	return &Relay{queue: q, logger: o.logger}
}

// HandlePackets enqueues the payload of each packet in order. Packet
// boundaries are not kept. Once the queue has been closed the relay stops
// for good and every later call reports the dropped bytes.
func (r *Relay) HandlePackets(packets ...[]byte) error {
	for i, pkt := range packets {
		if len(pkt) == 0 {
			continue
		}
		if r.stopped.Load() {
			r.logger.Warn("relay: stopped, dropping inbound bytes", "bytes", countBytes(packets[i:]))
			return ErrRelayStopped
		}
		if err := r.queue.Send(pkt...); err != nil {
			if r.stopped.CompareAndSwap(false, true) {
				r.logger.Error("relay: queue closed, stopping", "err", err, "dropped", countBytes(packets[i:]))
			}
			return err
		}
		if r.logger.Enabled(context.Background(), slog.LevelDebug) {
			r.logger.Debug("relay: queued", "bytes", len(pkt), "data", hexBytes(pkt))
		}
	}
	return nil
}

// Receive has the shape of a MIDI listener callback.
func (r *Relay) Receive(data []byte) {
	_ = r.HandlePackets(data)
}

// Stopped reports whether the relay has given up after a queue teardown.
func (r *Relay) Stopped() bool {
	return r.stopped.Load()
}

func countBytes(packets [][]byte) int {
	n := 0
	for _, p := range packets {
		n += len(p)
	}
	return n
}
