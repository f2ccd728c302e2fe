package network

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// UDP link header constants. Every datagram toward or from the signalling
// gateway starts with a 12 octet big endian header.
const (
	HeaderLen = 12

	FormatSimpleUDP uint8 = 2

	DataMSUPrio0 uint8 = 0
	DataMSUPrio1 uint8 = 1
	DataMSUPrio2 uint8 = 2
	DataMSUPrio3 uint8 = 3
	DataLinkUp   uint8 = 34
	DataLinkDown uint8 = 35
)

var (
	// ErrShortDatagram is returned for datagrams shorter than the header.
	ErrShortDatagram = errors.New("datagram shorter than link header")
	// ErrUnknownFormat is returned for headers with a format other than 2.
	ErrUnknownFormat = errors.New("unknown link header format")
)

// Header is the UDP link header.
type Header struct {
	Format      uint8
	DataType    uint8
	DataLink    uint16
	UserContext uint32
	DataLength  uint32
}

// IsMSU reports whether the datagram carries an MSU.
func (h Header) IsMSU() bool {
	return h.DataType <= DataMSUPrio3
}

// EncodeDatagram prepends a simple-format header to msu.
func EncodeDatagram(dataType uint8, dataLink uint16, msu []byte) []byte {
	buf := make([]byte, HeaderLen+len(msu))
	buf[0] = FormatSimpleUDP
	buf[1] = dataType
	binary.BigEndian.PutUint16(buf[2:4], dataLink)
	binary.BigEndian.PutUint32(buf[4:8], 0)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(msu)))
	copy(buf[HeaderLen:], msu)
	return buf
}

// DecodeDatagram splits a datagram into header and payload. The payload is
// cut to DataLength and aliases data.
func DecodeDatagram(data []byte) (Header, []byte, error) {
	if len(data) < HeaderLen {
		return Header{}, nil, fmt.Errorf("failed to decode datagram: %w (%d octets)", ErrShortDatagram, len(data))
	}
	h := Header{
		Format:      data[0],
		DataType:    data[1],
		DataLink:    binary.BigEndian.Uint16(data[2:4]),
		UserContext: binary.BigEndian.Uint32(data[4:8]),
		DataLength:  binary.BigEndian.Uint32(data[8:12]),
	}
	if h.Format != FormatSimpleUDP {
		return h, nil, fmt.Errorf("failed to decode datagram: %w %d", ErrUnknownFormat, h.Format)
	}
	payload := data[HeaderLen:]
	if int(h.DataLength) > len(payload) {
		return h, nil, fmt.Errorf("failed to decode datagram: length %d exceeds %d octets", h.DataLength, len(payload))
	}
	return h, payload[:h.DataLength], nil
}
