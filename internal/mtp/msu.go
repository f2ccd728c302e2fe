// Package mtp encodes and decodes MTP level 3 message signal units with the
// ITU routing label.
package mtp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Service indicators (Q.704 section 14.2.1).
const (
	SISNM  uint8 = 0x00
	SITest uint8 = 0x01
	SISCCP uint8 = 0x03
)

// Network indicators.
const (
	NIInternational uint8 = 0
	NISpare         uint8 = 1
	NINational      uint8 = 2
	NIReserved      uint8 = 3
)

const (
	sioLen   = 1
	labelLen = 4
	// HeaderLen is the SIO plus the routing label.
	HeaderLen = sioLen + labelLen

	pcMask  = 0x3fff
	slsMask = 0x0f
)

// ErrShortMSU is returned when a buffer cannot hold an SIO and routing label.
var ErrShortMSU = errors.New("short MSU")

// SIO is the service information octet.
type SIO struct {
	NI    uint8
	Spare uint8
	SI    uint8
}

// Byte packs the SIO.
func (s SIO) Byte() byte {
	return (s.NI&0x03)<<6 | (s.Spare&0x03)<<4 | s.SI&0x0f
}

// ParseSIO unpacks a service information octet.
func ParseSIO(b byte) SIO {
	return SIO{NI: b >> 6, Spare: (b >> 4) & 0x03, SI: b & 0x0f}
}

// Label is the ITU routing label: DPC, OPC and SLS packed into 32 bits,
// least significant bit first.
type Label struct {
	DPC uint16
	OPC uint16
	SLS uint8
}

// Uint32 packs the label.
func (l Label) Uint32() uint32 {
	return uint32(l.DPC&pcMask) |
		uint32(l.OPC&pcMask)<<14 |
		uint32(l.SLS&slsMask)<<28
}

// ParseLabel unpacks a packed routing label.
func ParseLabel(v uint32) Label {
	return Label{
		DPC: uint16(v & pcMask),
		OPC: uint16((v >> 14) & pcMask),
		SLS: uint8(v>>28) & slsMask,
	}
}

// Reverse returns the label for an answer to a message carrying l.
func (l Label) Reverse() Label {
	return Label{DPC: l.OPC, OPC: l.DPC, SLS: l.SLS}
}

// MSU is a decoded message signal unit. Payload aliases the decoded buffer.
type MSU struct {
	SIO     SIO
	Label   Label
	Payload []byte
}

// Encode serializes the MSU into a fresh buffer.
func (m *MSU) Encode() []byte {
	buf := make([]byte, HeaderLen+len(m.Payload))
	buf[0] = m.SIO.Byte()
	binary.LittleEndian.PutUint32(buf[sioLen:], m.Label.Uint32())
	copy(buf[HeaderLen:], m.Payload)
	return buf
}

// Decode parses an MSU. The payload is not copied.
func Decode(data []byte) (*MSU, error) {
	if len(data) < HeaderLen {
		return nil, fmt.Errorf("failed to decode MSU: %w (%d octets)", ErrShortMSU, len(data))
	}
	return &MSU{
		SIO:     ParseSIO(data[0]),
		Label:   ParseLabel(binary.LittleEndian.Uint32(data[sioLen:])),
		Payload: data[HeaderLen:],
	}, nil
}

// ServiceName returns a short name for a service indicator.
func ServiceName(si uint8) string {
	switch si {
	case SISNM:
		return "SNM"
	case SITest:
		return "SLTM"
	case SISCCP:
		return "SCCP"
	default:
		return fmt.Sprintf("SI(%d)", si)
	}
}
