// Mock MSC for end-to-end testing of the relay.
// Listens on TCP, speaks IPA, answers BSSMAP resets with a reset
// acknowledge and logs every other SCCP message.
//
// Usage:
//
//	go run test/mockmsc/main.go [--addr 127.0.0.1:5000] [--no-ack]
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"udt-relay/internal/network"
	"udt-relay/internal/sccp"
)

type mockMSC struct {
	addr  string
	noAck bool
	ln    net.Listener

	mu    sync.Mutex
	stats struct {
		connections int
		received    int
		resets      int
		errors      int
	}
}

func (m *mockMSC) run() error {
	var err error
	m.ln, err = net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer m.ln.Close()

	log.Printf("Mock MSC listening on %s", m.addr)

	for {
		conn, err := m.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("accept error: %v", err)
			continue
		}
		m.mu.Lock()
		m.stats.connections++
		m.mu.Unlock()
		go m.serve(conn)
	}
}

func (m *mockMSC) serve(conn net.Conn) {
	defer conn.Close()
	log.Printf("Relay connected from %s", conn.RemoteAddr())

	if err := write(conn, network.IPAProtoCCM, []byte{network.CCMIDGet}); err != nil {
		log.Printf("write error: %v", err)
		return
	}

	r := bufio.NewReader(conn)
	for {
		f, err := network.ReadFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("read error: %v", err)
			}
			log.Printf("Relay %s disconnected", conn.RemoteAddr())
			return
		}

		resp, err := m.handleFrame(f)
		if err != nil {
			log.Printf("handle error: %v", err)
			m.mu.Lock()
			m.stats.errors++
			m.mu.Unlock()
			continue
		}
		if resp == nil {
			continue
		}
		if err := write(conn, resp.Proto, resp.Payload); err != nil {
			log.Printf("write error: %v", err)
			return
		}
	}
}

func (m *mockMSC) handleFrame(f network.Frame) (*network.Frame, error) {
	switch f.Proto {
	case network.IPAProtoCCM:
		if len(f.Payload) == 0 {
			return nil, fmt.Errorf("empty CCM frame")
		}
		switch f.Payload[0] {
		case network.CCMPing:
			return &network.Frame{Proto: network.IPAProtoCCM, Payload: []byte{network.CCMPong}}, nil
		case network.CCMIDResp:
			log.Printf("← ID response (%d octets)", len(f.Payload))
			return &network.Frame{Proto: network.IPAProtoCCM, Payload: []byte{network.CCMIDAck}}, nil
		}
		return nil, nil

	case network.IPAProtoSCCP:
		m.mu.Lock()
		m.stats.received++
		m.mu.Unlock()

		v, err := sccp.Parse(f.Payload)
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		res := sccp.Classify(v)
		log.Printf("← %s (%d octets, %s)", v.Type, v.Len(), res.Disposition)

		if res.Disposition != sccp.ResetRequest {
			return nil, nil
		}
		m.mu.Lock()
		m.stats.resets++
		m.mu.Unlock()
		if m.noAck {
			log.Printf("Not acknowledging reset")
			return nil, nil
		}
		log.Printf("→ Reset Acknowledge")
		return &network.Frame{Proto: network.IPAProtoSCCP, Payload: sccp.NewResetAckUDT()}, nil
	}

	return nil, fmt.Errorf("unknown IPA protocol 0x%02x", f.Proto)
}

func write(conn net.Conn, proto uint8, payload []byte) error {
	frame, err := network.EncodeFrame(proto, payload)
	if err != nil {
		return err
	}
	_, err = conn.Write(frame)
	return err
}

func (m *mockMSC) printStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.Printf("Stats: connections=%d received=%d resets=%d errors=%d",
		m.stats.connections, m.stats.received, m.stats.resets, m.stats.errors)
}

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "TCP address to listen on")
	noAck := flag.Bool("no-ack", false, "Never acknowledge resets")
	flag.Parse()

	msc := &mockMSC{addr: *addr, noAck: *noAck}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		msc.printStats()
		msc.ln.Close()
	}()

	if err := msc.run(); err != nil {
		log.Fatalf("Mock MSC error: %v", err)
	}
}
