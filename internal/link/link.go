package link

import (
	"udt-relay/internal/mtp"
	"udt-relay/pkg/types"
)

// Link is the relay's view of the signalling link toward the BSC. It is
// owned by the relay event loop and not safe for concurrent use; State,
// Available and Awaiting change only through Apply.
type Link struct {
	OPC   uint16
	DPC   uint16
	SLS   uint8
	NI    uint8
	Spare uint8

	State     State
	Available bool
	// Awaiting is the peer whose Reset Acknowledge ends the running reset
	// procedure, DirNone outside of it.
	Awaiting types.Direction
}

// New creates a link in the Down state.
func New(opc, dpc uint16, sls, ni, spare uint8) *Link {
	return &Link{OPC: opc, DPC: dpc, SLS: sls, NI: ni, Spare: spare}
}

// Apply runs event through the state machine and applies the actions that
// only touch the link itself. The full result is returned so the caller can
// execute the remaining actions in order.
func (l *Link) Apply(event Event) FSMResult {
	res := ApplyEvent(l.State, event)
	if !res.Handled {
		return res
	}

	for _, a := range res.Actions {
		switch a {
		case ActionMarkAvailable:
			l.Available = true
		case ActionMarkUnavailable:
			l.Available = false
		}
	}

	l.State = res.NewState
	switch {
	case l.State != StateReset:
		l.Awaiting = types.DirNone
	case event == EventResetFromBSC, event == EventMSCConnected:
		l.Awaiting = types.FromMSC
	case event == EventResetFromMSC:
		l.Awaiting = types.FromBSC
	}
	return res
}

// ExpectsAckFrom reports whether a Reset Acknowledge from dir completes the
// running reset procedure.
func (l *Link) ExpectsAckFrom(dir types.Direction) bool {
	return l.State == StateReset && l.Awaiting == dir
}

// SIO returns the service information octet for a service indicator on this
// link.
func (l *Link) SIO(si uint8) mtp.SIO {
	return mtp.SIO{NI: l.NI, Spare: l.Spare, SI: si}
}

// Label returns the routing label for messages the relay sends to the BSC.
func (l *Link) Label() mtp.Label {
	return mtp.Label{DPC: l.DPC, OPC: l.OPC, SLS: l.SLS}
}

// Wrap builds an MSU carrying an SCCP message toward the BSC.
func (l *Link) Wrap(sccp []byte) []byte {
	m := &mtp.MSU{SIO: l.SIO(mtp.SISCCP), Label: l.Label(), Payload: sccp}
	return m.Encode()
}
