package network

import (
	"context"
	"sync"

	"udt-relay/pkg/types"
)

// MemoryLink is an in-process Transport. Inject feeds MSUs as if the BSC had
// sent them and Sent returns what the relay transmitted. It backs dry runs
// and tests.
type MemoryLink struct {
	msgChan   chan []byte
	eventChan chan types.TransportEvent

	mu       sync.Mutex
	sent     [][]byte
	restarts int
	closed   bool
}

// NewMemoryLink creates an idle in-memory link.
func NewMemoryLink() *MemoryLink {
	return &MemoryLink{
		msgChan:   make(chan []byte, 1000),
		eventChan: make(chan types.TransportEvent, 16),
	}
}

// Start reports the link up right away.
func (m *MemoryLink) Start(ctx context.Context) error {
	m.SetUp()
	return nil
}

// Send records msu.
func (m *MemoryLink) Send(msu []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	data := make([]byte, len(msu))
	copy(data, msu)
	m.sent = append(m.sent, data)
	return nil
}

// Messages returns the channel fed by Inject.
func (m *MemoryLink) Messages() <-chan []byte {
	return m.msgChan
}

// Events returns the link state channel.
func (m *MemoryLink) Events() <-chan types.TransportEvent {
	return m.eventChan
}

// Restart counts the request and reports the link up again.
func (m *MemoryLink) Restart() {
	m.mu.Lock()
	m.restarts++
	m.mu.Unlock()
	m.SetUp()
}

// Close marks the link closed; later sends fail.
func (m *MemoryLink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Inject queues msu as received from the BSC.
func (m *MemoryLink) Inject(msu []byte) {
	m.msgChan <- msu
}

// SetUp reports LinkUp.
func (m *MemoryLink) SetUp() {
	m.eventChan <- types.TransportEvent{Kind: types.EventLinkUp, Source: types.FromBSC}
}

// SetDown reports LinkDown.
func (m *MemoryLink) SetDown() {
	m.eventChan <- types.TransportEvent{Kind: types.EventLinkDown, Source: types.FromBSC}
}

// Sent returns a copy of everything sent so far.
func (m *MemoryLink) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

// Reset forgets the recorded messages.
func (m *MemoryLink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// Restarts returns how often Restart was called.
func (m *MemoryLink) Restarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restarts
}

// Connect reports Connected, for use as the MSC side of a loopback setup.
func (m *MemoryLink) Connect() {
	m.eventChan <- types.TransportEvent{Kind: types.EventConnected, Source: types.FromMSC}
}

// KeepAlive does nothing on a memory link.
func (m *MemoryLink) KeepAlive() error {
	return nil
}

// Drop reports Disconnected followed by Connected, like a redialled
// connection.
func (m *MemoryLink) Drop() {
	m.eventChan <- types.TransportEvent{Kind: types.EventDisconnected, Source: types.FromMSC}
	m.Connect()
}
