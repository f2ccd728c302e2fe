package sccp

// BSSMAP information elements touched by the assignment patch.
const (
	ieCIC            uint8 = 0x01
	ieChannelType    uint8 = 0x0b
	ieRRCause        uint8 = 0x15
	ieChosenChannel  uint8 = 0x21
	ieCircuitPool    uint8 = 0x28
	ieChosenEncrAlg  uint8 = 0x2c
	ieDownlinkDTX    uint8 = 0x31
	ieSpeechVersion  uint8 = 0x40
	speechFullPref   uint8 = 0x0a
	speechPermFR1    uint8 = 0x01
	speechPermFR2    uint8 = 0x11
	speechPermHR1    uint8 = 0x05
	speechPermHR3    uint8 = 0x25
	speechPermExtBit uint8 = 0x80
)

// tvLengths lists the BSSMAP IEs encoded as tag + fixed value; every other
// tag is TLV.
var tvLengths = map[uint8]int{
	ieCIC:           2,
	ieRRCause:       1,
	ieChosenChannel: 1,
	ieCircuitPool:   1,
	ieChosenEncrAlg: 1,
	ieDownlinkDTX:   1,
	ieSpeechVersion: 1,
}

// Filter parses and classifies messages and applies the length-preserving
// BSSMAP patches the relay performs in both directions.
type Filter struct {
	patchAssignment bool
}

// NewFilter creates a filter. With patchAssignment set, assignment requests
// and completions have their codec fields rewritten in place.
func NewFilter(patchAssignment bool) *Filter {
	return &Filter{patchAssignment: patchAssignment}
}

// Apply parses buf, patches it in place when needed and returns the
// classification together with a view over buf. A parse failure yields the
// Malformed disposition and the parse error.
func (f *Filter) Apply(buf []byte) (Result, *View, error) {
	v, err := Parse(buf)
	if err != nil {
		return Result{Disposition: Malformed}, nil, err
	}

	if f.patchAssignment && (v.Type == MsgTypeDT1 || v.Type == MsgTypeDT2) {
		patchAssignment(v.Data())
	}

	return Classify(v), v, nil
}

// patchAssignment rewrites the codec negotiation of a BSSMAP assignment so
// the BSC is offered full rate while the MSC is told half rate was chosen.
func patchAssignment(data []byte) {
	msgType := bssmapType(data)
	if msgType != BSSMAPAssignmentRequest && msgType != BSSMAPAssignmentComplete {
		return
	}
	ies := bssmapIEs(data[3 : 2+int(data[1])])

	switch msgType {
	case BSSMAPAssignmentRequest:
		ct, ok := ies[ieChannelType]
		if !ok || len(ct) < 3 || ct[0]&0x0f != 0x01 {
			return
		}
		ct[1] = speechFullPref
		ct[2] = speechPermFR2
		if len(ct) < 4 {
			return
		}
		ct[2] |= speechPermExtBit
		ct[3] = speechPermFR1
		if len(ct) < 5 {
			return
		}
		ct[3] |= speechPermExtBit
		ct[4] = speechPermHR1
	case BSSMAPAssignmentComplete:
		if cc, ok := ies[ieChosenChannel]; ok && cc[0]&0x0f == 0x08 {
			cc[0] = cc[0]&0xf0 | 0x09
		}
		if sv, ok := ies[ieSpeechVersion]; ok {
			sv[0] = speechPermHR3
		}
	}
}

// bssmapIEs indexes the IEs of a BSSMAP body. The returned slices alias
// body. Walking stops at the first IE that does not fit.
func bssmapIEs(body []byte) map[uint8][]byte {
	ies := make(map[uint8][]byte)
	for i := 0; i < len(body); {
		tag := body[i]
		n, tv := tvLengths[tag]
		start := i + 1
		if !tv {
			if start >= len(body) {
				break
			}
			n = int(body[start])
			start++
		}
		if start+n > len(body) {
			break
		}
		if _, seen := ies[tag]; !seen && n > 0 {
			ies[tag] = body[start : start+n]
		}
		i = start + n
	}
	return ies
}
