package sccp

import "fmt"

// CauseEquipmentFailure is the GSM 08.08 cause sent with relay-originated
// resets.
const CauseEquipmentFailure uint8 = 0x20

// bssapAddress is the SSN-only address (route on SSN, SSN 254) both parties
// get in relay-originated UDTs.
var bssapAddress = []byte{AddrRouteOnSSN | AddrSSN, SSNBSSAP}

// NewUDT wraps data in a class 0 UDT with SSN-only BSSAP addresses.
func NewUDT(data []byte) []byte {
	msg := make([]byte, 0, 5+2*(1+len(bssapAddress))+1+len(data))
	msg = append(msg, byte(MsgTypeUDT), 0x00)
	// pointers to called, calling and data
	msg = append(msg, 3, byte(3+len(bssapAddress)), byte(3+2*len(bssapAddress)))
	msg = append(msg, byte(len(bssapAddress)))
	msg = append(msg, bssapAddress...)
	msg = append(msg, byte(len(bssapAddress)))
	msg = append(msg, bssapAddress...)
	msg = append(msg, byte(len(data)))
	return append(msg, data...)
}

// NewResetUDT builds a BSSMAP Reset with the given cause.
func NewResetUDT(cause uint8) []byte {
	return NewUDT([]byte{BSSAPDiscrBSSMAP, 4, BSSMAPReset, 0x04, 0x01, cause})
}

// NewResetAckUDT builds a BSSMAP Reset Acknowledge.
func NewResetAckUDT() []byte {
	return NewUDT([]byte{BSSAPDiscrBSSMAP, 1, BSSMAPResetAck})
}

// BuildReleaseComplete would answer an RLSD with an RLC. The relay forwards
// connection-oriented messages without tracking connections, so no
// disposition leads here.
func BuildReleaseComplete(srcRef, dstRef uint32) ([]byte, error) {
	return nil, fmt.Errorf("%w: release complete for %06x/%06x", ErrUnsupported, srcRef, dstRef)
}

// BuildConnectionReset would build an SCCP RSR. Resets are handled at the
// BSSMAP level by the link state machine; ResetRequest dispositions never
// need it.
func BuildConnectionReset(srcRef, dstRef uint32) ([]byte, error) {
	return nil, fmt.Errorf("%w: connection reset for %06x/%06x", ErrUnsupported, srcRef, dstRef)
}
