package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// IPA framing used on the MSC connection: a 16 bit big endian payload
// length, a protocol octet and the payload.
const (
	ipaHeaderLen = 3

	IPAProtoSCCP uint8 = 0xfd
	IPAProtoCCM  uint8 = 0xfe

	CCMPing   uint8 = 0x00
	CCMPong   uint8 = 0x01
	CCMIDGet  uint8 = 0x04
	CCMIDResp uint8 = 0x05
	CCMIDAck  uint8 = 0x06

	// IDTagUnitName carries the unit name in an ID response.
	IDTagUnitName uint8 = 0x01
)

// ErrFrameTooLarge is returned for payloads that do not fit the length field.
var ErrFrameTooLarge = errors.New("IPA payload too large")

// Frame is one IPA frame.
type Frame struct {
	Proto   uint8
	Payload []byte
}

// EncodeFrame serializes a frame.
func EncodeFrame(proto uint8, payload []byte) ([]byte, error) {
	if len(payload) > 0xffff {
		return nil, fmt.Errorf("%w: %d octets", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, ipaHeaderLen+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(payload)))
	buf[2] = proto
	copy(buf[ipaHeaderLen:], payload)
	return buf, nil
}

// ReadFrame reads exactly one frame from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [ipaHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	payload := make([]byte, binary.BigEndian.Uint16(hdr[0:2]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, fmt.Errorf("failed to read IPA payload: %w", err)
	}
	return Frame{Proto: hdr[2], Payload: payload}, nil
}

// IDResponse builds the CCM ID response carrying unitName.
func IDResponse(unitName string) []byte {
	name := append([]byte(unitName), 0)
	msg := make([]byte, 0, 4+len(name))
	msg = append(msg, CCMIDResp, 0x00, byte(len(name)+1), IDTagUnitName)
	return append(msg, name...)
}
