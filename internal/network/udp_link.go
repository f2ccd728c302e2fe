package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"udt-relay/pkg/types"
)

// UDPLink carries MSUs to the signalling gateway over UDP. Bringing the link
// up deactivates it first and waits for the reset timeout, so the BSC sees
// its link tests fail and starts a fresh alignment.
type UDPLink struct {
	conn         *net.UDPConn
	remote       *net.UDPAddr
	dataLink     uint16
	activator    Activator
	resetTimeout time.Duration

	msgChan   chan []byte
	eventChan chan types.TransportEvent

	ctx        context.Context
	mu         sync.Mutex
	restarting bool
	closed     bool
}

// NewUDPLink binds the local socket.
func NewUDPLink(opts UDPOptions) (*UDPLink, error) {
	localAddr := &net.UDPAddr{
		IP:   net.ParseIP(opts.LocalAddr),
		Port: opts.LocalPort,
	}

	remoteAddr := &net.UDPAddr{
		IP:   net.ParseIP(opts.RemoteAddr),
		Port: opts.RemotePort,
	}

	conn, err := net.ListenUDP("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP to %s:%d: %w", opts.LocalAddr, opts.LocalPort, err)
	}

	activator := opts.Activator
	if activator == nil {
		activator = LogActivator{Host: opts.RemoteAddr}
	}

	return &UDPLink{
		conn:         conn,
		remote:       remoteAddr,
		dataLink:     opts.DataLink,
		activator:    activator,
		resetTimeout: time.Duration(opts.ResetTimeout) * time.Second,
		msgChan:      make(chan []byte, 1000),
		eventChan:    make(chan types.TransportEvent, 16),
	}, nil
}

// Start begins listening and runs the bring-up sequence in the background.
func (l *UDPLink) Start(ctx context.Context) error {
	l.mu.Lock()
	l.ctx = ctx
	l.mu.Unlock()

	go l.listen(ctx)
	l.Restart()
	return nil
}

// Send transmits one MSU with priority 0.
func (l *UDPLink) Send(msu []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	_, err := l.conn.WriteToUDP(EncodeDatagram(DataMSUPrio0, l.dataLink, msu), l.remote)
	if err != nil {
		return fmt.Errorf("failed to send to %s: %w", l.remote, err)
	}
	return nil
}

// Messages returns the channel of received MSUs.
func (l *UDPLink) Messages() <-chan []byte {
	return l.msgChan
}

// Events returns the link state channel.
func (l *UDPLink) Events() <-chan types.TransportEvent {
	return l.eventChan
}

// Restart deactivates the link, waits for the reset timeout, activates it
// again and reports LinkUp. A restart already in progress absorbs the call.
func (l *UDPLink) Restart() {
	l.mu.Lock()
	if l.restarting || l.closed || l.ctx == nil {
		l.mu.Unlock()
		return
	}
	l.restarting = true
	ctx := l.ctx
	l.mu.Unlock()

	go func() {
		defer func() {
			l.mu.Lock()
			l.restarting = false
			l.mu.Unlock()
		}()

		if err := l.activator.Deactivate(ctx); err != nil {
			log.WithError(err).Error("Failed to deactivate signalling link")
		}
		log.WithField("wait", l.resetTimeout).Info("Waiting for the BSC link tests to time out")

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.resetTimeout):
		}

		if err := l.activator.Activate(ctx); err != nil {
			log.WithError(err).Error("Failed to activate signalling link")
			l.emit(ctx, types.TransportEvent{Kind: types.EventLinkDown, Source: types.FromBSC, Err: err})
			return
		}
		l.emit(ctx, types.TransportEvent{Kind: types.EventLinkUp, Source: types.FromBSC})
	}()
}

func (l *UDPLink) emit(ctx context.Context, ev types.TransportEvent) {
	select {
	case l.eventChan <- ev:
	case <-ctx.Done():
	}
}

// Close closes the socket.
func (l *UDPLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.conn.Close()
}

// LocalAddr returns the local address the link is bound to.
func (l *UDPLink) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

func (l *UDPLink) listen(ctx context.Context) {
	defer close(l.msgChan)

	buf := make([]byte, 65535)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || l.isClosed() {
				return
			}
			log.WithError(err).Warn("Error reading from UDP")
			continue
		}

		hdr, payload, err := DecodeDatagram(buf[:n])
		if err != nil {
			log.WithError(err).WithField("from", addr).Warn("Failed to decode link datagram")
			continue
		}

		switch {
		case hdr.IsMSU():
			data := make([]byte, len(payload))
			copy(data, payload)
			select {
			case l.msgChan <- data:
			case <-ctx.Done():
				return
			}
		case hdr.DataType == DataLinkUp:
			l.emit(ctx, types.TransportEvent{Kind: types.EventLinkUp, Source: types.FromBSC})
		case hdr.DataType == DataLinkDown:
			l.emit(ctx, types.TransportEvent{Kind: types.EventLinkDown, Source: types.FromBSC})
		default:
			log.WithFields(log.Fields{
				"data_type": hdr.DataType,
				"from":      addr,
			}).Debug("Ignoring link datagram")
		}
	}
}

func (l *UDPLink) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
