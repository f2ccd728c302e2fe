package mtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSIO_Byte(t *testing.T) {
	sio := SIO{NI: NINational, Spare: 0, SI: SISCCP}
	assert.Equal(t, byte(0x83), sio.Byte())
	assert.Equal(t, sio, ParseSIO(0x83))

	sio = SIO{NI: NIInternational, Spare: 3, SI: SITest}
	assert.Equal(t, byte(0x31), sio.Byte())
}

func TestLabel_Packing(t *testing.T) {
	l := Label{DPC: 1, OPC: 0, SLS: 13}
	assert.Equal(t, uint32(0xd0000001), l.Uint32())
	assert.Equal(t, l, ParseLabel(l.Uint32()))

	l = Label{DPC: 0x3fff, OPC: 0x1234, SLS: 0x0f}
	assert.Equal(t, l, ParseLabel(l.Uint32()))
}

func TestLabel_MasksOversizedFields(t *testing.T) {
	l := Label{DPC: 0xffff, OPC: 0, SLS: 0xff}
	got := ParseLabel(l.Uint32())
	assert.Equal(t, uint16(0x3fff), got.DPC)
	assert.Equal(t, uint16(0), got.OPC)
	assert.Equal(t, uint8(0x0f), got.SLS)
}

func TestLabel_Reverse(t *testing.T) {
	l := Label{DPC: 1, OPC: 2, SLS: 3}
	assert.Equal(t, Label{DPC: 2, OPC: 1, SLS: 3}, l.Reverse())
}

func TestMSU_EncodeDecode(t *testing.T) {
	m := &MSU{
		SIO:     SIO{NI: NINational, SI: SISCCP},
		Label:   Label{DPC: 1, OPC: 0, SLS: 13},
		Payload: []byte{0x09, 0x00},
	}
	buf := m.Encode()
	assert.Equal(t, []byte{0x83, 0x01, 0x00, 0x00, 0xd0, 0x09, 0x00}, buf)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, m.SIO, got.SIO)
	assert.Equal(t, m.Label, got.Label)
	assert.Equal(t, m.Payload, got.Payload)
}

func TestDecode_Short(t *testing.T) {
	_, err := Decode([]byte{0x83, 0x01, 0x00})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortMSU)
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "SCCP", ServiceName(SISCCP))
	assert.Equal(t, "SI(5)", ServiceName(5))
}
