package network

import (
	"context"
	"errors"
	"fmt"

	"udt-relay/pkg/types"
)

// Transport carries MSUs to and from the BSC.
type Transport interface {
	// Start begins reading and brings the link up in the background.
	Start(ctx context.Context) error
	// Send transmits one MSU.
	Send(msu []byte) error
	// Messages delivers received MSUs in arrival order.
	Messages() <-chan []byte
	// Events delivers LinkUp and LinkDown.
	Events() <-chan types.TransportEvent
	// Restart takes the link down and up again, asynchronously.
	Restart()
	Close() error
}

// Transport names accepted by New.
const (
	TransportUDP      = "udp"
	TransportLoopback = "loopback"
	TransportC7       = "c7"
)

var (
	// ErrNoC7Driver is returned when the C7 board transport is requested.
	ErrNoC7Driver = errors.New("no C7 driver in this build")
	// ErrNotConnected is returned when sending without a connection.
	ErrNotConnected = errors.New("not connected")
	// ErrClosed is returned when using a closed transport.
	ErrClosed = errors.New("transport closed")
)

// UDPOptions configures the UDP transport.
type UDPOptions struct {
	LocalAddr    string
	LocalPort    int
	RemoteAddr   string
	RemotePort   int
	DataLink     uint16
	Activator    Activator
	ResetTimeout int
}

// New creates the transport selected by name.
func New(name string, opts UDPOptions) (Transport, error) {
	switch name {
	case TransportUDP:
		l, err := NewUDPLink(opts)
		if err != nil {
			return nil, err
		}
		return l, nil
	case TransportLoopback:
		return NewMemoryLink(), nil
	case TransportC7:
		return nil, ErrNoC7Driver
	default:
		return nil, fmt.Errorf("unknown transport %q", name)
	}
}
