package types

import (
	"net"
	"time"
)

// Direction tells which peer a message came from or an event concerns.
type Direction uint8

const (
	DirNone Direction = iota
	FromBSC
	FromMSC
)

// String returns a short name used in logs and metric labels.
func (d Direction) String() string {
	switch d {
	case FromBSC:
		return "bsc"
	case FromMSC:
		return "msc"
	default:
		return "none"
	}
}

// RawMSU represents an MTP level 3 message signal unit extracted from a pcap
// file or received from the BSC side transport.
type RawMSU struct {
	Data      []byte
	Timestamp time.Time
	SrcIP     net.IP
	DstIP     net.IP
	SrcPort   uint16
	DstPort   uint16
}

// TransportEventKind enumerates what a transport reports besides data.
type TransportEventKind uint8

const (
	EventLinkUp TransportEventKind = iota + 1
	EventLinkDown
	EventConnected
	EventDisconnected
)

// String returns the event name.
func (k TransportEventKind) String() string {
	switch k {
	case EventLinkUp:
		return "LinkUp"
	case EventLinkDown:
		return "LinkDown"
	case EventConnected:
		return "Connected"
	case EventDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// TransportEvent is a state change of the BSC link (LinkUp/LinkDown) or of
// the MSC connection (Connected/Disconnected).
type TransportEvent struct {
	Kind   TransportEventKind
	Source Direction
	Err    error
}

// MessageStats holds per-message-type counters for one direction.
type MessageStats struct {
	Received  uint64
	Forwarded uint64
	Patched   uint64
	Queued    uint64
	Dropped   uint64
	Malformed uint64
}
