package sccp

import "fmt"

// Disposition is the decision the classifier takes for one message. The
// numeric values are stable and used in logs and tests; zero is the no-op.
type Disposition int

const (
	Malformed    Disposition = -1
	PassThrough  Disposition = 0
	ResetRequest Disposition = 1
	ResetAck     Disposition = 2
	PatchToMSC   Disposition = 3
	PatchToBSC   Disposition = 4
)

// String returns the disposition name.
func (d Disposition) String() string {
	switch d {
	case Malformed:
		return "Malformed"
	case PassThrough:
		return "PassThrough"
	case ResetRequest:
		return "ResetRequest"
	case ResetAck:
		return "ResetAck"
	case PatchToMSC:
		return "PatchToMSC"
	case PatchToBSC:
		return "PatchToBSC"
	default:
		return fmt.Sprintf("Disposition(%d)", int(d))
	}
}

// Result is a disposition plus the buffer offset it refers to: the address
// part for PatchToMSC, the called party point code for PatchToBSC, zero
// otherwise.
type Result struct {
	Disposition Disposition
	Offset      int
}

// BSSMAP framing inside the SCCP user data (GSM 08.08).
const (
	BSSAPDiscrBSSMAP uint8 = 0x00
	BSSAPDiscrDTAP   uint8 = 0x01

	BSSMAPAssignmentRequest  uint8 = 0x01
	BSSMAPAssignmentComplete uint8 = 0x02
	BSSMAPReset              uint8 = 0x30
	BSSMAPResetAck           uint8 = 0x31
	BSSMAPPaging             uint8 = 0x52
)

// Classify decides what the relay has to do with v. Reset classes win over
// everything else so address content can never hide them.
func Classify(v *View) Result {
	switch v.Type {
	case MsgTypeRSR:
		return Result{Disposition: ResetRequest}
	case MsgTypeRSC:
		return Result{Disposition: ResetAck}
	}

	connectionless := v.Type == MsgTypeUDT || v.Type == MsgTypeXUDT
	if connectionless {
		switch bssmapType(v.Data()) {
		case BSSMAPReset:
			return Result{Disposition: ResetRequest}
		case BSSMAPResetAck:
			return Result{Disposition: ResetAck}
		}
	}

	if v.Type == MsgTypeUDT && bssmapType(v.Data()) == BSSMAPPaging {
		if called, ok := pagingLayout(v); ok {
			return Result{Disposition: PatchToBSC, Offset: called.Field.Offset + 1}
		}
	}

	for _, a := range v.Addresses() {
		if a.Address.HasPointCode {
			return Result{Disposition: PatchToMSC, Offset: a.Field.Offset}
		}
	}

	return Result{Disposition: PassThrough}
}

// bssmapType returns the BSSMAP message type of data, or 0xff when data is
// not a complete BSSMAP header.
func bssmapType(data []byte) uint8 {
	if len(data) < 3 || data[0] != BSSAPDiscrBSSMAP {
		return 0xff
	}
	if int(data[1]) > len(data)-2 || data[1] == 0 {
		return 0xff
	}
	return data[2]
}

// pagingLayout checks that both parties of a UDT carry a point code, which is
// what RewriteForBSC patches.
func pagingLayout(v *View) (AddressPart, bool) {
	called, ok := v.Address(TagCalledParty)
	if !ok || !called.Address.HasPointCode || called.Field.Optional {
		return AddressPart{}, false
	}
	calling, ok := v.Address(TagCallingParty)
	if !ok || !calling.Address.HasPointCode || calling.Field.Optional {
		return AddressPart{}, false
	}
	return called, true
}
