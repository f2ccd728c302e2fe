package sccp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_AssignmentRequest_Patched(t *testing.T) {
	buf := clone(assignmentRequest)
	res, _, err := NewFilter(true).Apply(buf)
	require.NoError(t, err)

	assert.Equal(t, PassThrough, res.Disposition)
	assert.Equal(t, assignmentRequestPatched, buf)
}

func TestFilter_AssignmentComplete_Patched(t *testing.T) {
	buf := clone(assignmentComplete)
	res, _, err := NewFilter(true).Apply(buf)
	require.NoError(t, err)

	assert.Equal(t, PassThrough, res.Disposition)
	assert.Equal(t, assignmentCompletePatched, buf)
}

func TestFilter_AssignmentPatchDisabled(t *testing.T) {
	buf := clone(assignmentRequest)
	_, _, err := NewFilter(false).Apply(buf)
	require.NoError(t, err)
	assert.Equal(t, assignmentRequest, buf)
}

func TestFilter_AssignmentRequest_DataChannelUntouched(t *testing.T) {
	buf := clone(assignmentRequest)
	buf[12] = 0x02 // data, not speech
	want := clone(buf)

	_, _, err := NewFilter(true).Apply(buf)
	require.NoError(t, err)
	assert.Equal(t, want, buf)
}

func TestFilter_AssignmentRequest_PermittedListExtended(t *testing.T) {
	// channel type with three permitted speech versions
	buf := []byte{
		0x06, 0x01, 0x04, 0x00, 0x00, 0x01,
		0x0c, 0x00, 0x0a, 0x01, 0x0b, 0x05, 0x01, 0x08, 0x81, 0x85, 0x01, 0x01, 0x00, 0x02}
	buf[6] = byte(len(buf) - 7)
	buf[8] = byte(len(buf) - 9)

	_, _, err := NewFilter(true).Apply(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x0a, 0x91, 0x81, 0x05}, buf[12:17])
}

func TestFilter_ResetAck(t *testing.T) {
	res, v, err := NewFilter(true).Apply(clone(resetAck))
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, ResetAck, res.Disposition)
	assert.Equal(t, 2, int(res.Disposition))
}

func TestFilter_ConnectionConfirm_PassThrough(t *testing.T) {
	res, _, err := NewFilter(true).Apply(clone(connectionConfirm))
	require.NoError(t, err)
	assert.Equal(t, PassThrough, res.Disposition)
	assert.Equal(t, 0, int(res.Disposition))
}

func TestFilter_Malformed(t *testing.T) {
	res, v, err := NewFilter(true).Apply([]byte{0x09, 0x00})
	require.Error(t, err)
	assert.Nil(t, v)
	assert.Equal(t, Malformed, res.Disposition)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestBSSMAPIEs_StopsAtTruncatedIE(t *testing.T) {
	ies := bssmapIEs([]byte{0x01, 0x00, 0x02, 0x0b, 0x05, 0x01})
	assert.Equal(t, []byte{0x00, 0x02}, ies[ieCIC])
	_, ok := ies[ieChannelType]
	assert.False(t, ok)
}
