package sccp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, buf []byte) Result {
	t.Helper()
	v, err := Parse(buf)
	require.NoError(t, err)
	return Classify(v)
}

func TestClassify_Dispositions(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want Disposition
	}{
		{"udt with point codes", udtWithPOI, PatchToMSC},
		{"udt without point codes", udtWithoutPOI, PassThrough},
		{"cr with point code", crWithPOI, PatchToMSC},
		{"cr without point code", cr2WithoutPOI, PassThrough},
		{"connection confirm", connectionConfirm, PassThrough},
		{"dt1", assignmentRequest, PassThrough},
		{"reset ack", resetAck, ResetAck},
		{"reset", NewResetUDT(CauseEquipmentFailure), ResetRequest},
		{"paging", pagingCommand, PatchToBSC},
		{"sccp reset request", []byte{0x0d, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x00}, ResetRequest},
		{"sccp reset confirm", []byte{0x0e, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, ResetAck},
		{"unknown type", []byte{0x7f}, PassThrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(t, tt.buf).Disposition)
		})
	}
}

func TestClassify_ResetWinsOverPointCode(t *testing.T) {
	// resetAck carries point codes in both addresses
	v, err := Parse(resetAck)
	require.NoError(t, err)
	for _, a := range v.Addresses() {
		require.True(t, a.Address.HasPointCode)
	}
	assert.Equal(t, ResetAck, Classify(v).Disposition)

	buf := clone(resetAck)
	buf[len(buf)-1] = BSSMAPReset
	assert.Equal(t, ResetRequest, classify(t, buf).Disposition)
}

func TestClassify_PatchToMSC_Offset(t *testing.T) {
	res := classify(t, udtWithPOI)
	assert.Equal(t, 6, res.Offset)

	res = classify(t, crWithPOI)
	assert.Equal(t, 8, res.Offset)
}

func TestClassify_Paging_Offset(t *testing.T) {
	res := classify(t, pagingCommand)
	assert.Equal(t, PatchToBSC, res.Disposition)
	assert.Equal(t, 7, res.Offset)
}

func TestClassify_PagingWithoutPointCodes(t *testing.T) {
	data := []byte{0x00, 0x03, BSSMAPPaging, 0x1a, 0x00}
	assert.Equal(t, PassThrough, classify(t, NewUDT(data)).Disposition)
}

func TestClassify_ShortBSSMAPHeader(t *testing.T) {
	// length octet larger than the data
	data := []byte{0x00, 0x09, BSSMAPReset}
	assert.Equal(t, PassThrough, classify(t, NewUDT(data)).Disposition)
}

func TestDisposition_String(t *testing.T) {
	assert.Equal(t, "PatchToBSC", PatchToBSC.String())
	assert.Equal(t, "Malformed", Malformed.String())
	assert.Equal(t, "Disposition(9)", Disposition(9).String())
}
