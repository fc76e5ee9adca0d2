package serialport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.bug.st/serial/enumerator"
)

var (
	ErrNoPorts          = errors.New("no serial ports found")
	ErrInvalidSelection = errors.New("invalid port selection")
)

// PortInfo describes one enumerated serial device.
type PortInfo struct {
	Name    string
	IsUSB   bool
	VID     string
	PID     string
	Product string
}

func (p PortInfo) String() string {
	if !p.IsUSB {
		return p.Name
	}
	s := fmt.Sprintf("%s (USB %s:%s", p.Name, p.VID, p.PID)
	if p.Product != "" {
		s += " " + p.Product
	}
	return s + ")"
}

// List enumerates the serial ports present on the system.
func List() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:    d.Name,
			IsUSB:   d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Product: d.Product,
		})
	}
	return ports, nil
}

// WriteList prints ports as a numbered list, one per line.
func WriteList(w io.Writer, ports []PortInfo) {
	for i, p := range ports {
		fmt.Fprintf(w, "[%d] %s\n", i, p)
	}
}

// Choose prints ports, reads an index from in and returns the selected
// device name.
func Choose(ports []PortInfo, in io.Reader, out io.Writer) (string, error) {
	if len(ports) == 0 {
		return "", ErrNoPorts
	}

	fmt.Fprintln(out, "\nAvailable ports:")
	WriteList(out, ports)
	fmt.Fprintln(out, "\nEnter port number:")

	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read selection: %w", err)
		}
		return "", fmt.Errorf("%w: no input", ErrInvalidSelection)
	}
	line := strings.TrimSpace(sc.Text())
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 0 || idx >= len(ports) {
		return "", fmt.Errorf("%w: %q (expected 0-%d)", ErrInvalidSelection, line, len(ports)-1)
	}

	fmt.Fprintf(out, "Selected port: %s\n\n", ports[idx].Name)
	return ports[idx].Name, nil
}

// Prompt enumerates the system's ports and lets the user pick one.
func Prompt(in io.Reader, out io.Writer) (string, error) {
	ports, err := List()
	if err != nil {
		return "", err
	}
	return Choose(ports, in, out)
}
