package link

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"go.bug.st/serial"
)

// Opener produces one physical connection to the field controller.
// The manager owns whatever it returns and closes it on failure.
type Opener interface {
	Open(ctx context.Context) (io.ReadWriteCloser, error)
	Describe() string
}

// SerialOpener opens a local serial device, the usual deployment.
type SerialOpener struct {
	Device string
	Baud   int
}

func (o SerialOpener) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	port, err := serial.Open(o.Device, &serial.Mode{BaudRate: o.Baud})
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", o.Device, err)
	}
	// Bounded reads so the manager can observe cancellation between
	// chunks; a timeout surfaces as a zero-byte read, not an error.
	if err := port.SetReadTimeout(time.Second); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("link: read timeout %s: %w", o.Device, err)
	}
	return port, nil
}

func (o SerialOpener) Describe() string {
	return fmt.Sprintf("serial %s @ %d baud", o.Device, o.Baud)
}

// TCPOpener dials a serial-over-TCP bridge in front of the field
// controller. Tests use it against local listeners.
type TCPOpener struct {
	Addr        string
	DialTimeout time.Duration
}

func (o TCPOpener) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	timeout := o.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", o.Addr)
	if err != nil {
		return nil, fmt.Errorf("link: dial %s: %w", o.Addr, err)
	}
	return conn, nil
}

func (o TCPOpener) Describe() string {
	return fmt.Sprintf("tcp %s", o.Addr)
}
