package serialport

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard MIDI baud rate.
	DefaultBaudRate    = 31250
	DefaultReadTimeout = 10 * time.Millisecond
)

var (
	ErrInvalidConfig = errors.New("invalid serial config")
	ErrOpen          = errors.New("failed to open serial port")
	ErrDisconnected  = errors.New("serial device disconnected")
)

// Config holds the parameters used to open a serial device.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

func (c Config) validate() error {
	switch {
	case c.Device == "":
		return fmt.Errorf("%w: empty device", ErrInvalidConfig)
	case c.BaudRate <= 0:
		return fmt.Errorf("%w: baud rate %d", ErrInvalidConfig, c.BaudRate)
	case c.ReadTimeout <= 0:
		return fmt.Errorf("%w: read timeout %s", ErrInvalidConfig, c.ReadTimeout)
	}
	return nil
}

// Port wraps a go.bug.st/serial port. Read returns (0, nil) when the read
// timeout elapses without data.
type Port struct {
	port   serial.Port
	device string
	logger *slog.Logger
}

// Open opens and configures the device as 8N1 with the configured read timeout.
func Open(cfg Config, logger *slog.Logger) (*Port, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrOpen, cfg.Device, err)
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w %q: set read timeout: %w", ErrOpen, cfg.Device, err)
	}

	logger.Info("serial: port opened", "device", cfg.Device, "baud", cfg.BaudRate, "read_timeout", cfg.ReadTimeout)
	return &Port{port: p, device: cfg.Device, logger: logger}, nil
}

func (p *Port) Device() string { return p.device }

// Read blocks for at most the configured read timeout. Errors that mean the
// device is gone are wrapped with ErrDisconnected.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err != nil {
		return n, classify(err)
	}
	return n, nil
}

func (p *Port) Write(b []byte) (int, error) {
	n, err := p.port.Write(b)
	if err != nil {
		return n, classify(err)
	}
	return n, nil
}

// Close closes the underlying serial port.
func (p *Port) Close() error {
	p.logger.Info("serial: closing port", "device", p.device)
	return p.port.Close()
}

func classify(err error) error {
	if IsDisconnect(err) {
		return fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return err
}

// IsDisconnect reports whether err indicates the device was removed or the
// port closed underneath us.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDisconnected) {
		return true
	}

	if code, ok := portErrorCode(err); ok {
		switch code {
		case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort:
			return true
		default:
			return false
		}
	}

	// OS-level errors that the serial library does not wrap
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "device not configured") ||
		strings.Contains(msg, "input/output error") ||
		strings.Contains(msg, "no such device") ||
		strings.Contains(msg, "bad file descriptor")
}

// portErrorCode digs a PortError out of err. The library returns it both by
// value and by pointer depending on platform.
func portErrorCode(err error) (serial.PortErrorCode, bool) {
	var ptr *serial.PortError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code(), true
	}
	var val serial.PortError
	if errors.As(err, &val) {
		return val.Code(), true
	}
	return 0, false
}
