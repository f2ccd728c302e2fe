// Package link keeps the state of the BSC side signalling link and the
// BSSMAP reset procedure running across both peers.
package link

// The state machine is a pure function over a transition table; the Link
// and the relay execute the returned actions.
//
//	          LinkUp                 ResetFromBSC, ResetFromMSC,
//	  +------------------------+     MSCConnected
//	  |                        v    +-------------+
//	+------+  LinkDown,     +------+              v
//	| Down |<---------------|  Up  |           +-------+
//	+------+  SLTMTimeout,  +------+<----------| Reset |---+ ResetTimeout,
//	  ^       AdminShutdown           ResetAck +-------+<--+ Reset*
//	  |                                            |
//	  +--------------------------------------------+
//	      LinkDown, SLTMTimeout, AdminShutdown

// State is the link state.
type State uint8

const (
	StateDown State = iota
	StateUp
	StateReset
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDown:
		return "Down"
	case StateUp:
		return "Up"
	case StateReset:
		return "Reset"
	default:
		return "Unknown"
	}
}

// Event is an input of the state machine.
type Event uint8

const (
	EventLinkUp Event = iota
	EventLinkDown
	EventSLTMTimeout
	EventAdminShutdown
	EventResetFromBSC
	EventResetFromMSC
	EventResetAck
	EventResetTimeout
	EventMSCConnected
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventLinkUp:
		return "LinkUp"
	case EventLinkDown:
		return "LinkDown"
	case EventSLTMTimeout:
		return "SLTMTimeout"
	case EventAdminShutdown:
		return "AdminShutdown"
	case EventResetFromBSC:
		return "ResetFromBSC"
	case EventResetFromMSC:
		return "ResetFromMSC"
	case EventResetAck:
		return "ResetAck"
	case EventResetTimeout:
		return "ResetTimeout"
	case EventMSCConnected:
		return "MSCConnected"
	default:
		return "Unknown"
	}
}

// Action is a side effect the caller executes after a transition, in order.
type Action uint8

const (
	ActionMarkAvailable Action = iota + 1
	ActionMarkUnavailable
	ActionStartSLTM
	ActionStopSLTM
	ActionSendTRA
	ActionDrainQueue
	ActionClearQueue
	ActionSendResetMSC
	ActionSendResetBSC
	ActionAckBSC
	ActionAckMSC
	ActionStartResetTimer
	ActionStopResetTimer
	ActionResendReset
	ActionRestartTransport
	ActionLogAnomaly
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionMarkAvailable:
		return "MarkAvailable"
	case ActionMarkUnavailable:
		return "MarkUnavailable"
	case ActionStartSLTM:
		return "StartSLTM"
	case ActionStopSLTM:
		return "StopSLTM"
	case ActionSendTRA:
		return "SendTRA"
	case ActionDrainQueue:
		return "DrainQueue"
	case ActionClearQueue:
		return "ClearQueue"
	case ActionSendResetMSC:
		return "SendResetMSC"
	case ActionSendResetBSC:
		return "SendResetBSC"
	case ActionAckBSC:
		return "AckBSC"
	case ActionAckMSC:
		return "AckMSC"
	case ActionStartResetTimer:
		return "StartResetTimer"
	case ActionStopResetTimer:
		return "StopResetTimer"
	case ActionResendReset:
		return "ResendReset"
	case ActionRestartTransport:
		return "RestartTransport"
	case ActionLogAnomaly:
		return "LogAnomaly"
	default:
		return "Unknown"
	}
}

type stateEvent struct {
	state State
	event Event
}

type transition struct {
	newState State
	actions  []Action
}

// FSMResult holds the outcome of applying an event. Handled is false when
// the table has no entry for the pair and the event was ignored.
type FSMResult struct {
	OldState State
	NewState State
	Actions  []Action
	Changed  bool
	Handled  bool
}

var (
	goDown = []Action{
		ActionMarkUnavailable, ActionStopSLTM, ActionClearQueue, ActionSendResetMSC,
	}
	goDownRestart = []Action{
		ActionMarkUnavailable, ActionStopSLTM, ActionClearQueue, ActionSendResetMSC,
		ActionRestartTransport,
	}
	abortReset = []Action{
		ActionMarkUnavailable, ActionStopSLTM, ActionClearQueue, ActionSendResetMSC,
		ActionStopResetTimer,
	}
	abortResetRestart = []Action{
		ActionMarkUnavailable, ActionStopSLTM, ActionClearQueue, ActionSendResetMSC,
		ActionStopResetTimer, ActionRestartTransport,
	}
	resetByBSC = []Action{
		ActionAckBSC, ActionClearQueue, ActionSendResetMSC, ActionStartResetTimer,
	}
	resetByMSC = []Action{
		ActionAckMSC, ActionClearQueue, ActionSendResetBSC, ActionStartResetTimer,
	}
	resetMSC = []Action{
		ActionSendResetMSC, ActionStartResetTimer,
	}
)

var fsmTable = map[stateEvent]transition{
	// Down
	{StateDown, EventLinkUp}: {
		newState: StateUp,
		actions:  []Action{ActionMarkAvailable, ActionStartSLTM, ActionSendTRA, ActionDrainQueue},
	},
	{StateDown, EventAdminShutdown}: {
		newState: StateDown,
		actions:  []Action{ActionClearQueue, ActionSendResetMSC},
	},
	{StateDown, EventResetFromBSC}: {
		newState: StateDown,
		actions:  []Action{ActionAckBSC},
	},
	{StateDown, EventResetFromMSC}: {
		newState: StateDown,
		actions:  []Action{ActionAckMSC},
	},
	{StateDown, EventResetAck}: {
		newState: StateDown,
		actions:  []Action{ActionLogAnomaly},
	},

	// Up
	{StateUp, EventLinkDown}:      {newState: StateDown, actions: goDown},
	{StateUp, EventAdminShutdown}: {newState: StateDown, actions: goDown},
	{StateUp, EventSLTMTimeout}:   {newState: StateDown, actions: goDownRestart},
	{StateUp, EventResetFromBSC}:  {newState: StateReset, actions: resetByBSC},
	{StateUp, EventResetFromMSC}:  {newState: StateReset, actions: resetByMSC},
	{StateUp, EventMSCConnected}:  {newState: StateReset, actions: resetMSC},
	{StateUp, EventResetAck}:      {newState: StateUp, actions: []Action{ActionLogAnomaly}},

	// Reset
	{StateReset, EventLinkDown}:      {newState: StateDown, actions: abortReset},
	{StateReset, EventAdminShutdown}: {newState: StateDown, actions: abortReset},
	{StateReset, EventSLTMTimeout}:   {newState: StateDown, actions: abortResetRestart},
	{StateReset, EventResetFromBSC}:  {newState: StateReset, actions: resetByBSC},
	{StateReset, EventResetFromMSC}:  {newState: StateReset, actions: resetByMSC},
	{StateReset, EventMSCConnected}:  {newState: StateReset, actions: resetMSC},
	{StateReset, EventResetAck}: {
		newState: StateUp,
		actions:  []Action{ActionStopResetTimer, ActionDrainQueue},
	},
	{StateReset, EventResetTimeout}: {
		newState: StateReset,
		actions:  []Action{ActionResendReset, ActionStartResetTimer},
	},
}

// ApplyEvent looks up the transition for the pair. Pairs without an entry
// leave the state unchanged and produce no actions.
func ApplyEvent(current State, event Event) FSMResult {
	tr, ok := fsmTable[stateEvent{state: current, event: event}]
	if !ok {
		return FSMResult{OldState: current, NewState: current}
	}
	return FSMResult{
		OldState: current,
		NewState: tr.newState,
		Actions:  tr.actions,
		Changed:  current != tr.newState,
		Handled:  true,
	}
}
