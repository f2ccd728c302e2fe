package network

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"udt-relay/pkg/types"
)

// MSCConn is the TCP connection toward the MSC. SCCP messages travel in IPA
// frames; CCM pings and identity requests are answered here. A lost
// connection is redialled, at most once per reconnect interval.
type MSCConn struct {
	addr     string
	unitName string
	timeout  time.Duration
	limiter  *rate.Limiter

	msgChan   chan []byte
	eventChan chan types.TransportEvent

	mu     sync.Mutex
	conn   net.Conn
	connID string
	cancel context.CancelFunc
	closed bool
}

// NewMSCConn creates an unconnected MSC link. reconnect spaces dial attempts.
func NewMSCConn(addr, unitName string, reconnect time.Duration) *MSCConn {
	if reconnect <= 0 {
		reconnect = time.Second
	}
	return &MSCConn{
		addr:      addr,
		unitName:  unitName,
		timeout:   reconnect,
		limiter:   rate.NewLimiter(rate.Every(reconnect), 1),
		msgChan:   make(chan []byte, 1000),
		eventChan: make(chan types.TransportEvent, 16),
	}
}

// Start dials in the background until ctx is done or Close is called.
func (c *MSCConn) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)
	return nil
}

func (c *MSCConn) run(ctx context.Context) {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		dialer := net.Dialer{Timeout: c.timeout}
		conn, err := dialer.DialContext(ctx, "tcp", c.addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).WithField("msc", c.addr).Warn("Failed to connect to MSC")
			continue
		}

		id := uuid.New().String()
		if v7, err := uuid.NewV7(); err == nil {
			id = v7.String()
		}
		c.mu.Lock()
		c.conn = conn
		c.connID = id
		c.mu.Unlock()

		log.WithFields(log.Fields{"msc": c.addr, "conn_id": id}).Info("Connected to MSC")
		c.emit(ctx, types.TransportEvent{Kind: types.EventConnected, Source: types.FromMSC})

		err = c.read(ctx, conn)

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		log.WithError(err).WithFields(log.Fields{"msc": c.addr, "conn_id": id}).Warn("MSC connection lost")
		c.emit(ctx, types.TransportEvent{Kind: types.EventDisconnected, Source: types.FromMSC, Err: err})
	}
}

func (c *MSCConn) read(ctx context.Context, conn net.Conn) error {
	r := bufio.NewReader(conn)
	for {
		f, err := ReadFrame(r)
		if err != nil {
			return err
		}

		switch f.Proto {
		case IPAProtoSCCP:
			select {
			case c.msgChan <- f.Payload:
			case <-ctx.Done():
				return ctx.Err()
			}
		case IPAProtoCCM:
			if err := c.handleCCM(conn, f.Payload); err != nil {
				return err
			}
		default:
			log.WithField("proto", fmt.Sprintf("0x%02x", f.Proto)).Debug("Ignoring IPA frame")
		}
	}
}

func (c *MSCConn) handleCCM(conn net.Conn, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	switch payload[0] {
	case CCMPing:
		return c.write(conn, IPAProtoCCM, []byte{CCMPong})
	case CCMIDGet:
		return c.write(conn, IPAProtoCCM, IDResponse(c.unitName))
	case CCMIDAck:
		return c.write(conn, IPAProtoCCM, []byte{CCMIDAck})
	case CCMPong:
		log.Debug("MSC answered keepalive")
	}
	return nil
}

func (c *MSCConn) write(conn net.Conn, proto uint8, payload []byte) error {
	frame, err := EncodeFrame(proto, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("failed to write to MSC: %w", err)
	}
	return nil
}

func (c *MSCConn) current() (net.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

// Send transmits one SCCP message.
func (c *MSCConn) Send(sccp []byte) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	return c.write(conn, IPAProtoSCCP, sccp)
}

// KeepAlive sends a CCM ping.
func (c *MSCConn) KeepAlive() error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	return c.write(conn, IPAProtoCCM, []byte{CCMPing})
}

// Drop closes the current connection; the dial loop reconnects.
func (c *MSCConn) Drop() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		log.WithField("conn_id", c.ConnID()).Info("Closing MSC connection on request")
		conn.Close()
	}
}

// Messages returns the channel of SCCP messages from the MSC.
func (c *MSCConn) Messages() <-chan []byte {
	return c.msgChan
}

// Events returns the connection state channel.
func (c *MSCConn) Events() <-chan types.TransportEvent {
	return c.eventChan
}

// ConnID identifies the current connection in logs.
func (c *MSCConn) ConnID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

// Close stops reconnecting and closes the connection.
func (c *MSCConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *MSCConn) emit(ctx context.Context, ev types.TransportEvent) {
	select {
	case c.eventChan <- ev:
	case <-ctx.Done():
	}
}
