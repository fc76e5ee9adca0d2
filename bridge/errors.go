package bridge

import "errors"

var (
	// ErrQueueClosed is returned by Queue.Send once the consumer is gone.
	ErrQueueClosed = errors.New("queue closed")
	// ErrSinkDelivery wraps a failure of the MIDI-out sink.
	ErrSinkDelivery = errors.New("midi sink delivery failed")
	// ErrSerialWrite wraps a failure writing relayed bytes to serial.
	ErrSerialWrite = errors.New("serial write failed")
	// ErrRelayStopped is returned by a relay that already hit ErrQueueClosed.
	ErrRelayStopped = errors.New("relay stopped")
)
