package sccp

import "fmt"

// MessageType is the first octet of every SCCP message (Q.713 section 4.2).
type MessageType uint8

const (
	MsgTypeCR    MessageType = 0x01
	MsgTypeCC    MessageType = 0x02
	MsgTypeCREF  MessageType = 0x03
	MsgTypeRLSD  MessageType = 0x04
	MsgTypeRLC   MessageType = 0x05
	MsgTypeDT1   MessageType = 0x06
	MsgTypeDT2   MessageType = 0x07
	MsgTypeAK    MessageType = 0x08
	MsgTypeUDT   MessageType = 0x09
	MsgTypeUDTS  MessageType = 0x0a
	MsgTypeED    MessageType = 0x0b
	MsgTypeEA    MessageType = 0x0c
	MsgTypeRSR   MessageType = 0x0d
	MsgTypeRSC   MessageType = 0x0e
	MsgTypeERR   MessageType = 0x0f
	MsgTypeIT    MessageType = 0x10
	MsgTypeXUDT  MessageType = 0x11
	MsgTypeXUDTS MessageType = 0x12
)

// Tag identifies a part of a message in the View index table. Optional
// parameters use their Q.713 parameter name codes; mandatory variable parts
// reuse the same codes so both layouts are looked up the same way.
type Tag uint8

const (
	TagEndOfOptional Tag = 0x00
	TagCalledParty   Tag = 0x03
	TagCallingParty  Tag = 0x04
	TagData          Tag = 0x0f
)

// IsKnown reports whether the message type has a layout in this package.
func (t MessageType) IsKnown() bool {
	_, ok := layouts[t]
	return ok
}

// String returns the Q.713 abbreviation of the message type.
func (t MessageType) String() string {
	switch t {
	case MsgTypeCR:
		return "CR"
	case MsgTypeCC:
		return "CC"
	case MsgTypeCREF:
		return "CREF"
	case MsgTypeRLSD:
		return "RLSD"
	case MsgTypeRLC:
		return "RLC"
	case MsgTypeDT1:
		return "DT1"
	case MsgTypeDT2:
		return "DT2"
	case MsgTypeAK:
		return "AK"
	case MsgTypeUDT:
		return "UDT"
	case MsgTypeUDTS:
		return "UDTS"
	case MsgTypeED:
		return "ED"
	case MsgTypeEA:
		return "EA"
	case MsgTypeRSR:
		return "RSR"
	case MsgTypeRSC:
		return "RSC"
	case MsgTypeERR:
		return "ERR"
	case MsgTypeIT:
		return "IT"
	case MsgTypeXUDT:
		return "XUDT"
	case MsgTypeXUDTS:
		return "XUDTS"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", uint8(t))
	}
}

// layout describes the mandatory part of one message type: the number of
// fixed octets after the type octet, the mandatory variable parts in pointer
// order, and whether an optional-part pointer follows them.
type layout struct {
	fixed    int
	variable []Tag
	optional bool
}

var layouts = map[MessageType]layout{
	MsgTypeCR:    {fixed: 4, variable: []Tag{TagCalledParty}, optional: true},
	MsgTypeCC:    {fixed: 7, optional: true},
	MsgTypeCREF:  {fixed: 4, optional: true},
	MsgTypeRLSD:  {fixed: 7, optional: true},
	MsgTypeRLC:   {fixed: 6},
	MsgTypeDT1:   {fixed: 4, variable: []Tag{TagData}},
	MsgTypeDT2:   {fixed: 5, variable: []Tag{TagData}},
	MsgTypeAK:    {fixed: 5},
	MsgTypeUDT:   {fixed: 1, variable: []Tag{TagCalledParty, TagCallingParty, TagData}},
	MsgTypeUDTS:  {fixed: 1, variable: []Tag{TagCalledParty, TagCallingParty, TagData}},
	MsgTypeED:    {fixed: 3, variable: []Tag{TagData}},
	MsgTypeEA:    {fixed: 3},
	MsgTypeRSR:   {fixed: 7},
	MsgTypeRSC:   {fixed: 6},
	MsgTypeERR:   {fixed: 4},
	MsgTypeIT:    {fixed: 10},
	MsgTypeXUDT:  {fixed: 2, variable: []Tag{TagCalledParty, TagCallingParty, TagData}, optional: true},
	MsgTypeXUDTS: {fixed: 2, variable: []Tag{TagCalledParty, TagCallingParty, TagData}, optional: true},
}
