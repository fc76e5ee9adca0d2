// Package virtual creates the host-visible MIDI endpoints through rtmidi
// (CoreMIDI on macOS, ALSA on Linux).
package virtual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var (
	ErrPortsClosed      = errors.New("virtual ports closed")
	ErrAlreadyListening = errors.New("virtual input already has a listener")
)

// Ports is the pair of virtual endpoints other applications connect to:
// "from <name>" carries messages read from serial, "to <name>" receives
// messages that are relayed back to serial.
type Ports struct {
	mu     sync.Mutex
	drv    *rtmididrv.Driver
	out    drivers.Out
	in     drivers.In
	stopFn func()
	closed bool
	logger *slog.Logger
}

// Open initialises the rtmidi driver and creates both virtual ports.
// Call Close() when done.
func Open(name string, logger *slog.Logger) (*Ports, error) {
	if logger == nil {
		logger = slog.Default()
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}

	out, err := drv.OpenVirtualOut(SourceName(name))
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("create virtual source %q: %w", SourceName(name), err)
	}
	in, err := drv.OpenVirtualIn(DestinationName(name))
	if err != nil {
		_ = out.Close()
		drv.Close()
		return nil, fmt.Errorf("create virtual destination %q: %w", DestinationName(name), err)
	}

	logger.Info("midi: virtual ports created", "source", SourceName(name), "destination", DestinationName(name))
	return &Ports{drv: drv, out: out, in: in, logger: logger}, nil
}

// SourceName is the port other applications read serial traffic from.
func SourceName(name string) string { return "from " + name }

// DestinationName is the port other applications send to for relaying to serial.
func DestinationName(name string) string { return "to " + name }

// inboundConfig selects the system messages passed through besides channel
// messages. Clock, MTC and active sense are dropped by the driver otherwise.
var inboundConfig = drivers.ListenConfig{TimeCode: true, ActiveSense: true}

// listenOptions turns cfg into ListenTo options.
func listenOptions(cfg drivers.ListenConfig, onErr func(error)) []gomidi.Option {
	opts := []gomidi.Option{gomidi.HandleError(onErr)}
	if cfg.TimeCode {
		opts = append(opts, gomidi.UseTimeCode())
	}
	if cfg.ActiveSense {
		opts = append(opts, gomidi.UseActiveSense())
	}
	if cfg.SysEx {
		opts = append(opts, gomidi.UseSysEx())
	}
	return opts
}

// Send delivers one serialized message to the virtual source.
func (p *Ports) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortsClosed
	}
	return p.out.Send(data)
}

// Listen registers onData for everything arriving at the virtual
// destination. onData runs on the driver's goroutine and must not block.
func (p *Ports) Listen(onData func(data []byte)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortsClosed
	}
	if p.stopFn != nil {
		return ErrAlreadyListening
	}

	stop, err := gomidi.ListenTo(p.in, func(msg gomidi.Message, _ int32) {
		if p.logger.Enabled(context.Background(), slog.LevelDebug) {
			p.logger.Debug("midi: inbound", "msg", msg.String(), "bytes", len(msg))
		}
		onData([]byte(msg))
	}, listenOptions(inboundConfig, func(listenErr error) {
		p.logger.Warn("midi: listener error", "err", listenErr)
	})...)
	if err != nil {
		return fmt.Errorf("listen on %q: %w", p.in.String(), err)
	}
	p.stopFn = stop
	return nil
}

// Close stops the listener and tears down both ports and the driver.
// Safe to call more than once.
func (p *Ports) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.stopFn != nil {
		p.stopFn()
		p.stopFn = nil
	}
	_ = p.in.Close()
	_ = p.out.Close()
	p.drv.Close()
	p.logger.Info("midi: virtual ports closed")
}
