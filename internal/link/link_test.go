package link

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"udt-relay/internal/mtp"
	"udt-relay/pkg/types"
)

func TestLink_StartsDown(t *testing.T) {
	l := New(0, 1, 13, mtp.NINational, 0)
	assert.Equal(t, StateDown, l.State)
	assert.False(t, l.Available)
	assert.Equal(t, types.DirNone, l.Awaiting)
}

func TestLink_Availability(t *testing.T) {
	l := New(0, 1, 13, mtp.NINational, 0)

	l.Apply(EventLinkUp)
	assert.Equal(t, StateUp, l.State)
	assert.True(t, l.Available)

	l.Apply(EventResetFromMSC)
	assert.True(t, l.Available)

	l.Apply(EventSLTMTimeout)
	assert.Equal(t, StateDown, l.State)
	assert.False(t, l.Available)
}

func TestLink_AwaitingPeer(t *testing.T) {
	l := New(0, 1, 13, mtp.NINational, 0)
	l.Apply(EventLinkUp)

	l.Apply(EventResetFromBSC)
	assert.Equal(t, types.FromMSC, l.Awaiting)
	assert.True(t, l.ExpectsAckFrom(types.FromMSC))
	assert.False(t, l.ExpectsAckFrom(types.FromBSC))

	l.Apply(EventResetTimeout)
	assert.Equal(t, types.FromMSC, l.Awaiting)

	l.Apply(EventResetFromMSC)
	assert.Equal(t, types.FromBSC, l.Awaiting)

	l.Apply(EventResetAck)
	assert.Equal(t, StateUp, l.State)
	assert.Equal(t, types.DirNone, l.Awaiting)
	assert.False(t, l.ExpectsAckFrom(types.FromBSC))
}

func TestLink_MSCConnectedAwaitsMSC(t *testing.T) {
	l := New(0, 1, 13, mtp.NINational, 0)
	l.Apply(EventLinkUp)
	l.Apply(EventMSCConnected)
	assert.Equal(t, StateReset, l.State)
	assert.Equal(t, types.FromMSC, l.Awaiting)
}

func TestLink_IgnoredEventKeepsState(t *testing.T) {
	l := New(0, 1, 13, mtp.NINational, 0)
	res := l.Apply(EventResetTimeout)
	assert.False(t, res.Handled)
	assert.Equal(t, StateDown, l.State)
}

func TestLink_Wrap(t *testing.T) {
	l := New(0, 1, 13, mtp.NINational, 0)
	buf := l.Wrap([]byte{0x09})

	m, err := mtp.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, mtp.SISCCP, m.SIO.SI)
	assert.Equal(t, mtp.NINational, m.SIO.NI)
	assert.Equal(t, mtp.Label{DPC: 1, OPC: 0, SLS: 13}, m.Label)
	assert.Equal(t, []byte{0x09}, m.Payload)
}

func TestTimers_Expire(t *testing.T) {
	timers := NewTimers(time.Millisecond)
	timers.Schedule(TimerReset, time.Hour)
	timers.Schedule(TimerSLTMPong, 0)

	fired := timers.expire(time.Now())
	assert.Equal(t, []TimerKind{TimerSLTMPong}, fired)
	assert.True(t, timers.armed(TimerReset))
	assert.False(t, timers.armed(TimerSLTMPong))

	fired = timers.expire(time.Now().Add(2 * time.Hour))
	assert.Equal(t, []TimerKind{TimerReset}, fired)
}

func TestTimers_CancelBeforeDeadline(t *testing.T) {
	timers := NewTimers(time.Millisecond)
	timers.Schedule(TimerReset, 0)
	timers.Cancel(TimerReset)
	assert.Empty(t, timers.expire(time.Now().Add(time.Hour)))
}

func TestTimers_RescheduleReplacesDeadline(t *testing.T) {
	timers := NewTimers(time.Millisecond)
	timers.Schedule(TimerSLTMPing, 0)
	timers.Schedule(TimerSLTMPing, time.Hour)
	assert.Empty(t, timers.expire(time.Now()))
}

func TestTimers_MonitorDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	timers := NewTimers(time.Millisecond)
	timers.StartMonitor(ctx)
	timers.Schedule(TimerKeepalive, 5*time.Millisecond)

	select {
	case kind := <-timers.C:
		assert.Equal(t, TimerKeepalive, kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimers_CancelAll(t *testing.T) {
	timers := NewTimers(time.Millisecond)
	timers.Schedule(TimerSLTMPing, 0)
	timers.Schedule(TimerReset, 0)
	timers.CancelAll()
	assert.Empty(t, timers.expire(time.Now()))
}
