package modem

import (
	"context"
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// SerialDialer opens a Transport over a serial line or pseudo-terminal.
type SerialDialer struct {
	// PortName is the device path, for example /dev/ttyUSB0 or /dev/pts/3.
	PortName string
	// Mode configures the line. Defaults to 115200 8N1.
	Mode *serial.Mode
}

var (
	errNoPortName = errors.New("ril: serial port name is required")
	errNilContext = errors.New("ril: context is nil")
)

func defaultSerialMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: 115200,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
}

// Dial opens the port. Opening a serial port cannot be interrupted, so
// cancellation is only honoured before the open starts.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errNilContext
	}
	if d.PortName == "" {
		return nil, errNoPortName
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = defaultSerialMode()
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}
	return port, nil
}
