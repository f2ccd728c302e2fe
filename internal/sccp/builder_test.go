package sccp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResetUDT(t *testing.T) {
	buf := NewResetUDT(CauseEquipmentFailure)
	assert.Equal(t, []byte{
		0x09, 0x00, 0x03, 0x05, 0x07,
		0x02, 0x42, 0xfe,
		0x02, 0x42, 0xfe,
		0x06, 0x00, 0x04, 0x30, 0x04, 0x01, 0x20}, buf)

	v, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, ResetRequest, Classify(v).Disposition)
}

func TestNewResetAckUDT(t *testing.T) {
	v, err := Parse(NewResetAckUDT())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x31}, v.Data())
	assert.Equal(t, ResetAck, Classify(v).Disposition)
}

func TestBuildUnsupported(t *testing.T) {
	_, err := BuildReleaseComplete(1, 2)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = BuildConnectionReset(1, 2)
	assert.ErrorIs(t, err, ErrUnsupported)
}
