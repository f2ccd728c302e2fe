package mtp

import (
	"errors"
	"fmt"
)

// Heading codes (H1<<4 | H0) of the test and network management messages the
// relay speaks.
const (
	HeadingSLTM uint8 = 0x11
	HeadingSLTA uint8 = 0x21
	HeadingTRA  uint8 = 0x17
)

// MaxTestPattern is the longest test pattern the length nibble can carry.
const MaxTestPattern = 15

// DefaultTestPattern is sent in every SLTM.
var DefaultTestPattern = []byte{'G', 'S', 'M', 'M', 'M', 'S', 'C', 'B', 'S', 'C', 'N', 'A', 'T', '!'}

// ErrPatternLength is returned for test patterns longer than MaxTestPattern.
var ErrPatternLength = errors.New("test pattern too long")

// Test is a decoded signalling link test message.
type Test struct {
	Heading uint8
	SLC     uint8
	Pattern []byte
}

// IsSLTM reports whether t is a test message rather than its acknowledgement.
func (t *Test) IsSLTM() bool {
	return t.Heading == HeadingSLTM
}

// NewSLTM builds a signalling link test message on the link described by
// sio and label. The SLS of the label doubles as the link code.
func NewSLTM(sio SIO, label Label, pattern []byte) ([]byte, error) {
	return newTest(HeadingSLTM, sio, label, pattern)
}

// NewSLTA answers an SLTM: the label is reversed and the pattern echoed.
func NewSLTA(sio SIO, req Label, pattern []byte) ([]byte, error) {
	return newTest(HeadingSLTA, sio, req.Reverse(), pattern)
}

func newTest(heading uint8, sio SIO, label Label, pattern []byte) ([]byte, error) {
	if len(pattern) > MaxTestPattern {
		return nil, fmt.Errorf("%w: %d octets", ErrPatternLength, len(pattern))
	}
	sio.SI = SITest
	payload := make([]byte, 0, 2+len(pattern))
	payload = append(payload, heading, byte(len(pattern))<<4|label.SLS&slsMask)
	payload = append(payload, pattern...)
	m := &MSU{SIO: sio, Label: label, Payload: payload}
	return m.Encode(), nil
}

// ParseTest decodes the payload of an SI 1 MSU.
func ParseTest(payload []byte) (*Test, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("failed to parse test message: %w", ErrShortMSU)
	}
	n := int(payload[1] >> 4)
	if len(payload) < 2+n {
		return nil, fmt.Errorf("failed to parse test message: pattern of %d octets, %d present", n, len(payload)-2)
	}
	return &Test{
		Heading: payload[0],
		SLC:     payload[1] & slsMask,
		Pattern: payload[2 : 2+n],
	}, nil
}

// NewTRA builds the traffic restart allowed message sent when the link
// comes up.
func NewTRA(sio SIO, label Label) []byte {
	sio.SI = SISNM
	m := &MSU{SIO: sio, Label: label, Payload: []byte{HeadingTRA}}
	return m.Encode()
}
