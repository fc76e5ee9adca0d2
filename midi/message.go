// Package midi decodes fixed 3-byte serial frames into the supported MIDI
// channel messages and serializes them back to wire bytes.
package midi

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	// FrameSize is the fixed number of bytes per serial message:
	//
	//	[status][data1][data2]
	FrameSize = 3

	StatusNoteOff       = 0x80
	StatusNoteOn        = 0x90
	StatusControlChange = 0xB0

	channelMask = 0x0F
	dataMask    = 0x7F
	typeMask    = 0xF0
)

// ErrUnrecognizedStatus is returned by Decode for frames whose status byte is
// neither a note nor a control change.
var ErrUnrecognizedStatus = errors.New("unrecognized MIDI status")

// Kind identifies which of the supported channel messages a Message holds.
type Kind uint8

const (
	NoteOff Kind = iota
	NoteOn
	ControlChange
)

func (k Kind) String() string {
	switch k {
	case NoteOff:
		return "note off"
	case NoteOn:
		return "note on"
	case ControlChange:
		return "control change"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Frame is one fixed-size group of bytes read from the serial transport.
type Frame [FrameSize]byte

// Message is a decoded channel message. Data1 is the pitch for notes and the
// controller number for control changes; Data2 is the velocity or value.
type Message struct {
	Kind    Kind
	Channel uint8
	Data1   uint8
	Data2   uint8
}

// NewNoteOn builds a note on. A velocity that masks to zero yields a note off.
func NewNoteOn(channel, pitch, velocity uint8) Message {
	m := Message{Kind: NoteOn, Channel: channel, Data1: pitch, Data2: velocity}.masked()
	if m.Data2 == 0 {
		m.Kind = NoteOff
	}
	return m
}

// NewNoteOff builds a note off with velocity 0.
func NewNoteOff(channel, pitch uint8) Message {
	return Message{Kind: NoteOff, Channel: channel, Data1: pitch}.masked()
}

// NewControlChange builds a control change for controller on channel.
func NewControlChange(channel, controller, value uint8) Message {
	return Message{Kind: ControlChange, Channel: channel, Data1: controller, Data2: value}.masked()
}

// Decode classifies a frame by its status nibble.
//
//	0x90-0x9F  note on (note off when velocity is 0 after masking)
//	0xB0-0xBF  control change
//
// Anything else returns ErrUnrecognizedStatus.
func Decode(f Frame) (Message, error) {
	status := f[0]
	channel := status & channelMask
	switch status & typeMask {
	case StatusNoteOn:
		return NewNoteOn(channel, f[1], f[2]), nil
	case StatusControlChange:
		return NewControlChange(channel, f[1], f[2]), nil
	default:
		return Message{}, fmt.Errorf("%w: 0x%02X (frame % X)", ErrUnrecognizedStatus, status, f[:])
	}
}

func (m Message) masked() Message {
	m.Channel &= channelMask
	m.Data1 &= dataMask
	m.Data2 &= dataMask
	return m
}

// Bytes serializes the message into its three wire bytes. Fields are masked
// again here so a hand-built Message can never produce an out-of-range byte.
func (m Message) Bytes() []byte {
	m = m.masked()
	var msg gomidi.Message
	switch m.Kind {
	case NoteOn:
		msg = gomidi.NoteOn(m.Channel, m.Data1, m.Data2)
	case NoteOff:
		msg = gomidi.NoteOff(m.Channel, m.Data1)
	default:
		msg = gomidi.ControlChange(m.Channel, m.Data1, m.Data2)
	}
	return []byte(msg)
}

func (m Message) String() string {
	return gomidi.Message(m.Bytes()).String()
}
