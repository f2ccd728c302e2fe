// Package relay connects the BSC link and the MSC connection: it runs the
// message filter and rewriters on every SCCP message, drives the link state
// machine and executes its actions.
package relay

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"udt-relay/internal/link"
	"udt-relay/internal/mtp"
	"udt-relay/internal/sccp"
	"udt-relay/internal/stats"
	"udt-relay/pkg/types"
)

// Options configures the relay behaviour.
type Options struct {
	ResetTimeout      time.Duration
	SLTMInterval      time.Duration
	SLTMWindow        time.Duration
	SLTMOnce          bool
	KeepaliveInterval time.Duration
	PatchAssignment   bool
	// Strict panics on an internally inconsistent rewrite instead of
	// dropping the message.
	Strict         bool
	ClearOnMSCDown bool
}

// BSCTransport carries MSUs to and from the BSC.
type BSCTransport interface {
	Send(msu []byte) error
	Messages() <-chan []byte
	Events() <-chan types.TransportEvent
	Restart()
	Close() error
}

// MSCTransport carries SCCP messages to and from the MSC.
type MSCTransport interface {
	Send(sccp []byte) error
	Messages() <-chan []byte
	Events() <-chan types.TransportEvent
	KeepAlive() error
	Drop()
	Close() error
}

// Tracer records the MSUs exchanged with the BSC.
type Tracer interface {
	WriteMSU(dir types.Direction, msu []byte) error
}

// Relay is the relay context. All handlers serialize on one mutex, so the
// link state, the queue and the MSC flag never change concurrently.
type Relay struct {
	opts    Options
	link    *link.Link
	filter  *sccp.Filter
	queue   *PendingQueue
	bsc     BSCTransport
	msc     MSCTransport
	sched   link.Scheduler
	stats   *stats.Collector
	metrics *stats.Metrics
	tracer  Tracer

	mscUp      bool
	resetStart time.Time
	// awaitingSLTA is set while a link test is unanswered.
	awaitingSLTA bool

	mu       sync.Mutex
	shutdown bool
	dropMSC  chan struct{}
}

// New creates a relay. The link must be in its initial state.
func New(
	opts Options,
	l *link.Link,
	bsc BSCTransport,
	msc MSCTransport,
	sched link.Scheduler,
	collector *stats.Collector,
) *Relay {
	return &Relay{
		opts:    opts,
		link:    l,
		filter:  sccp.NewFilter(opts.PatchAssignment),
		queue:   &PendingQueue{},
		bsc:     bsc,
		msc:     msc,
		sched:   sched,
		stats:   collector,
		dropMSC: make(chan struct{}, 1),
	}
}

// SetMetrics enables Prometheus accounting.
func (r *Relay) SetMetrics(m *stats.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
}

// SetTracer enables MSU tracing.
func (r *Relay) SetTracer(t Tracer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracer = t
}

// Run dispatches transport input and timer expirations until ctx is done,
// then shuts the relay down.
func (r *Relay) Run(ctx context.Context, timers <-chan link.TimerKind) error {
	bscMsgs, bscEvents := r.bsc.Messages(), r.bsc.Events()
	mscMsgs, mscEvents := r.msc.Messages(), r.msc.Events()

	for {
		select {
		case <-ctx.Done():
			r.Shutdown()
			return nil
		case msu, ok := <-bscMsgs:
			if !ok {
				bscMsgs = nil
				continue
			}
			r.OnMessageFromBSC(msu)
		case msg, ok := <-mscMsgs:
			if !ok {
				mscMsgs = nil
				continue
			}
			r.OnMessageFromMSC(msg)
		case ev, ok := <-bscEvents:
			if !ok {
				bscEvents = nil
				continue
			}
			r.OnTransportEvent(ev)
		case ev, ok := <-mscEvents:
			if !ok {
				mscEvents = nil
				continue
			}
			r.OnTransportEvent(ev)
		case kind := <-timers:
			r.OnTimerFired(kind)
		case <-r.dropMSC:
			r.msc.Drop()
		}
	}
}

// OnMessageFromBSC handles one MSU received on the BSC link.
func (r *Relay) OnMessageFromBSC(msu []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return
	}
	r.trace(types.FromBSC, msu)

	m, err := mtp.Decode(msu)
	if err != nil {
		log.WithError(err).WithField("length", len(msu)).Warn("Dropping undecodable MSU")
		r.count(types.FromBSC, "MSU", stats.OutcomeMalformed)
		return
	}

	switch m.SIO.SI {
	case mtp.SISCCP:
		r.fromBSC(m.Payload)
	case mtp.SITest:
		r.onLinkTest(m)
	case mtp.SISNM:
		log.WithField("payload", m.Payload).Debug("Network management message from BSC")
	default:
		log.WithField("service", mtp.ServiceName(m.SIO.SI)).Debug("Ignoring MSU")
	}
}

func (r *Relay) fromBSC(payload []byte) {
	name := typeName(payload)
	r.count(types.FromBSC, name, stats.OutcomeReceived)

	res, v, err := r.filter.Apply(payload)
	if err != nil {
		r.drop(types.FromBSC, name, len(payload), res.Disposition, err.Error())
		r.count(types.FromBSC, name, stats.OutcomeMalformed)
		return
	}

	switch res.Disposition {
	case sccp.ResetRequest:
		r.apply(link.EventResetFromBSC)
		return
	case sccp.ResetAck:
		r.onResetAck(types.FromBSC)
		return
	}

	if r.link.State == link.StateDown {
		r.drop(types.FromBSC, name, len(payload), res.Disposition, "link down")
		return
	}

	out, err := sccp.RewriteForMSC(res, v)
	if err != nil {
		r.inconsistent(types.FromBSC, name, err)
		return
	}
	if res.Disposition == sccp.PatchToMSC {
		r.count(types.FromBSC, name, stats.OutcomePatched)
		if called, ok := v.Address(sccp.TagCalledParty); ok {
			log.WithFields(log.Fields{
				"type":         name,
				"called_pc":    called.Address.PointCode,
				"route_on_ssn": called.Address.RouteOnSSN(),
				"called_gt":    called.Address.Digits(),
			}).Debug("Stripped point codes for the MSC")
		}
	}

	if r.link.State == link.StateUp && r.mscUp {
		if r.sendMSC(out, name) {
			r.count(types.FromBSC, name, stats.OutcomeForwarded)
		}
		return
	}
	r.queue.Push(out)
	r.count(types.FromBSC, name, stats.OutcomeQueued)
	r.updateQueueDepth()
	log.WithFields(log.Fields{
		"type":   name,
		"state":  r.link.State,
		"queued": r.queue.Len(),
	}).Debug("Queued message for the MSC")
}

// OnMessageFromMSC handles one SCCP message received from the MSC.
func (r *Relay) OnMessageFromMSC(msg []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return
	}

	name := typeName(msg)
	r.count(types.FromMSC, name, stats.OutcomeReceived)

	res, _, err := r.filter.Apply(msg)
	if err != nil {
		r.drop(types.FromMSC, name, len(msg), res.Disposition, err.Error())
		r.count(types.FromMSC, name, stats.OutcomeMalformed)
		return
	}

	switch res.Disposition {
	case sccp.ResetRequest:
		r.apply(link.EventResetFromMSC)
		return
	case sccp.ResetAck:
		r.onResetAck(types.FromMSC)
		return
	case sccp.PatchToBSC:
		if err := sccp.RewriteForBSC(msg, r.link.OPC, r.link.DPC); err != nil {
			r.drop(types.FromMSC, name, len(msg), res.Disposition, err.Error())
			return
		}
		r.count(types.FromMSC, name, stats.OutcomePatched)
	}

	if !r.link.Available {
		r.drop(types.FromMSC, name, len(msg), res.Disposition, "link unavailable")
		return
	}
	if r.sendBSC(r.link.Wrap(msg)) {
		r.count(types.FromMSC, name, stats.OutcomeForwarded)
	}
}

// OnTransportEvent handles link and connection state changes.
func (r *Relay) OnTransportEvent(ev types.TransportEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return
	}

	entry := log.WithFields(log.Fields{"event": ev.Kind, "source": ev.Source})
	if ev.Err != nil {
		entry = entry.WithError(ev.Err)
	}
	entry.Info("Transport event")

	switch ev.Kind {
	case types.EventLinkUp:
		r.apply(link.EventLinkUp)
	case types.EventLinkDown:
		r.apply(link.EventLinkDown)
	case types.EventConnected:
		r.mscUp = true
		r.stats.RecordMSCConnect()
		r.withMetrics(func(m *stats.Metrics) { m.MSCConnected.Set(1) })
		if r.opts.KeepaliveInterval > 0 {
			r.sched.Schedule(link.TimerKeepalive, r.opts.KeepaliveInterval)
		}
		r.apply(link.EventMSCConnected)
	case types.EventDisconnected:
		r.mscUp = false
		r.withMetrics(func(m *stats.Metrics) { m.MSCConnected.Set(0) })
		r.sched.Cancel(link.TimerKeepalive)
		if r.opts.ClearOnMSCDown {
			r.clearQueue("msc disconnected")
		}
	}
}

// OnTimerFired handles a supervisory timer expiration.
func (r *Relay) OnTimerFired(kind link.TimerKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return
	}

	switch kind {
	case link.TimerSLTMPing:
		if r.link.Available {
			r.sendSLTM()
		}
	case link.TimerSLTMPong:
		if !r.awaitingSLTA {
			log.Debug("Link test already answered, ignoring expiry")
			return
		}
		r.awaitingSLTA = false
		log.WithField("state", r.link.State).Warn("Link test not acknowledged")
		r.stats.RecordSLTMTimeout()
		r.apply(link.EventSLTMTimeout)
	case link.TimerReset:
		r.apply(link.EventResetTimeout)
	case link.TimerKeepalive:
		if !r.mscUp {
			return
		}
		if err := r.msc.KeepAlive(); err != nil {
			log.WithError(err).Warn("Failed to send keepalive to MSC")
		}
		r.sched.Schedule(link.TimerKeepalive, r.opts.KeepaliveInterval)
	}
}

// CloseMSCConnection asks the event loop to drop the MSC connection. The
// connection is re-established by the transport.
func (r *Relay) CloseMSCConnection() {
	select {
	case r.dropMSC <- struct{}{}:
	default:
	}
}

// Shutdown takes the link administratively down: the queue is cleared, the
// MSC is reset and both transports are closed. Later calls do nothing.
func (r *Relay) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return
	}

	log.Info("Shutting down relay")
	r.apply(link.EventAdminShutdown)
	r.shutdown = true

	r.sched.CancelAll()
	if err := r.bsc.Close(); err != nil {
		log.WithError(err).Warn("Failed to close BSC transport")
	}
	if err := r.msc.Close(); err != nil {
		log.WithError(err).Warn("Failed to close MSC transport")
	}
}

// State returns the link state.
func (r *Relay) State() link.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.link.State
}

// QueueLen returns the number of messages waiting for the MSC.
func (r *Relay) QueueLen() int {
	return r.queue.Len()
}

func (r *Relay) onResetAck(from types.Direction) {
	if r.link.State == link.StateReset && !r.link.ExpectsAckFrom(from) {
		log.WithFields(log.Fields{
			"from":     from,
			"awaiting": r.link.Awaiting,
		}).Warn("Reset acknowledge from the wrong side, discarding")
		r.stats.RecordAnomaly()
		return
	}
	r.apply(link.EventResetAck)
}

// apply feeds event to the link and executes the resulting actions in order.
func (r *Relay) apply(event link.Event) {
	res := r.link.Apply(event)
	entry := log.WithFields(log.Fields{
		"event": event,
		"state": res.OldState,
	})
	if !res.Handled {
		entry.Debug("Event ignored in this state")
		return
	}

	if res.Changed {
		entry.WithField("new_state", res.NewState).Info("Link state changed")
		r.stats.RecordTransition(res.OldState.String(), res.NewState.String())
		r.withMetrics(func(m *stats.Metrics) {
			m.Transition(res.OldState.String(), res.NewState.String(), int(res.NewState))
		})
	}
	switch {
	case res.NewState == link.StateReset && res.OldState != link.StateReset:
		r.resetStart = time.Now()
		r.stats.RecordResetStarted()
		r.withMetrics(func(m *stats.Metrics) { m.Reset("started") })
	case res.OldState == link.StateReset && res.NewState == link.StateUp:
		r.stats.RecordResetCompleted(time.Since(r.resetStart))
		r.withMetrics(func(m *stats.Metrics) { m.Reset("completed") })
	}

	for _, a := range res.Actions {
		r.execute(a, event)
	}
}

func (r *Relay) execute(a link.Action, event link.Event) {
	switch a {
	case link.ActionMarkAvailable:
		r.withMetrics(func(m *stats.Metrics) { m.LinkUp.Set(1) })
	case link.ActionMarkUnavailable:
		r.withMetrics(func(m *stats.Metrics) { m.LinkUp.Set(0) })
	case link.ActionStartSLTM:
		r.sendSLTM()
	case link.ActionStopSLTM:
		r.awaitingSLTA = false
		r.sched.Cancel(link.TimerSLTMPing)
		r.sched.Cancel(link.TimerSLTMPong)
	case link.ActionSendTRA:
		r.sendBSC(mtp.NewTRA(r.link.SIO(mtp.SISNM), r.link.Label()))
	case link.ActionDrainQueue:
		r.drainQueue()
	case link.ActionClearQueue:
		r.clearQueue(event.String())
	case link.ActionSendResetMSC:
		r.sendMSC(sccp.NewResetUDT(sccp.CauseEquipmentFailure), "Reset")
	case link.ActionSendResetBSC:
		r.sendBSC(r.link.Wrap(sccp.NewResetUDT(sccp.CauseEquipmentFailure)))
	case link.ActionAckBSC:
		r.sendBSC(r.link.Wrap(sccp.NewResetAckUDT()))
	case link.ActionAckMSC:
		r.sendMSC(sccp.NewResetAckUDT(), "ResetAck")
	case link.ActionStartResetTimer:
		r.sched.Schedule(link.TimerReset, r.opts.ResetTimeout)
	case link.ActionStopResetTimer:
		r.sched.Cancel(link.TimerReset)
	case link.ActionResendReset:
		r.stats.RecordResetRetry()
		r.withMetrics(func(m *stats.Metrics) { m.Reset("retried") })
		log.WithField("awaiting", r.link.Awaiting).Warn("Reset not acknowledged, sending again")
		if r.link.Awaiting == types.FromBSC {
			r.sendBSC(r.link.Wrap(sccp.NewResetUDT(sccp.CauseEquipmentFailure)))
		} else {
			r.sendMSC(sccp.NewResetUDT(sccp.CauseEquipmentFailure), "Reset")
		}
	case link.ActionRestartTransport:
		log.Error("Need to restart the signalling link")
		r.bsc.Restart()
	case link.ActionLogAnomaly:
		log.WithFields(log.Fields{
			"event": event,
			"state": r.link.State,
		}).Warn("Unexpected reset acknowledge, discarding")
		r.stats.RecordAnomaly()
	}
}

func (r *Relay) sendSLTM() {
	msu, err := mtp.NewSLTM(r.link.SIO(mtp.SITest), r.link.Label(), mtp.DefaultTestPattern)
	if err != nil {
		log.WithError(err).Error("Failed to build link test")
		return
	}
	if r.sendBSC(msu) {
		r.stats.RecordSLTMSent()
	}
	r.awaitingSLTA = true
	r.sched.Schedule(link.TimerSLTMPong, r.opts.SLTMWindow)
	if !r.opts.SLTMOnce {
		r.sched.Schedule(link.TimerSLTMPing, r.opts.SLTMInterval)
	}
}

func (r *Relay) onLinkTest(m *mtp.MSU) {
	test, err := mtp.ParseTest(m.Payload)
	if err != nil {
		log.WithError(err).Warn("Dropping malformed link test")
		return
	}

	if test.IsSLTM() {
		reply, err := mtp.NewSLTA(r.link.SIO(mtp.SITest), m.Label, test.Pattern)
		if err != nil {
			log.WithError(err).Warn("Failed to answer link test")
			return
		}
		r.sendBSC(reply)
		return
	}
	if test.Heading != mtp.HeadingSLTA {
		log.WithField("heading", test.Heading).Debug("Ignoring test message")
		return
	}
	if !bytes.Equal(test.Pattern, mtp.DefaultTestPattern) {
		log.WithField("pattern", test.Pattern).Warn("Link test acknowledge with wrong pattern")
		return
	}
	r.awaitingSLTA = false
	r.sched.Cancel(link.TimerSLTMPong)
}

func (r *Relay) drainQueue() {
	if !r.mscUp {
		if n := r.queue.Len(); n > 0 {
			log.WithField("queued", n).Info("MSC not connected, keeping queued messages")
		}
		return
	}
	msgs := r.queue.Drain()
	for _, msg := range msgs {
		name := typeName(msg)
		if r.sendMSC(msg, name) {
			r.count(types.FromBSC, name, stats.OutcomeForwarded)
		}
	}
	if len(msgs) > 0 {
		log.WithField("count", len(msgs)).Info("Sent queued messages to MSC")
	}
	r.updateQueueDepth()
}

func (r *Relay) clearQueue(reason string) {
	n := r.queue.Clear()
	if n > 0 {
		log.WithFields(log.Fields{"count": n, "reason": reason}).Warn("Discarded queued messages")
	}
	r.updateQueueDepth()
}

func (r *Relay) sendMSC(msg []byte, name string) bool {
	if !r.mscUp {
		log.WithField("type", name).Debug("MSC not connected, not sending")
		return false
	}
	if err := r.msc.Send(msg); err != nil {
		log.WithError(err).WithField("type", name).Warn("Failed to send to MSC")
		return false
	}
	return true
}

func (r *Relay) sendBSC(msu []byte) bool {
	if err := r.bsc.Send(msu); err != nil {
		log.WithError(err).WithField("length", len(msu)).Warn("Failed to send to BSC")
		return false
	}
	r.trace(types.FromMSC, msu)
	return true
}

func (r *Relay) inconsistent(dir types.Direction, name string, err error) {
	if r.opts.Strict {
		panic(err)
	}
	log.WithError(err).WithFields(log.Fields{
		"direction": dir,
		"type":      name,
	}).Error("Rewrite failed its self-check, dropping message")
	r.count(dir, name, stats.OutcomeDropped)
}

func (r *Relay) drop(dir types.Direction, name string, length int, d sccp.Disposition, reason string) {
	log.WithFields(log.Fields{
		"direction":   dir,
		"type":        name,
		"length":      length,
		"disposition": d,
		"reason":      reason,
	}).Warn("Dropping message")
	r.count(dir, name, stats.OutcomeDropped)
}

func (r *Relay) count(dir types.Direction, name, outcome string) {
	switch outcome {
	case stats.OutcomeReceived:
		r.stats.RecordReceived(dir, name)
	case stats.OutcomeForwarded:
		r.stats.RecordForwarded(dir, name)
	case stats.OutcomePatched:
		r.stats.RecordPatched(dir, name)
	case stats.OutcomeQueued:
		r.stats.RecordQueued(dir, name)
	case stats.OutcomeDropped:
		r.stats.RecordDropped(dir, name)
	case stats.OutcomeMalformed:
		r.stats.RecordMalformed(dir, name)
	}
	if r.metrics != nil {
		r.metrics.Message(dir.String(), name, outcome)
	}
}

func (r *Relay) updateQueueDepth() {
	r.withMetrics(func(m *stats.Metrics) { m.QueueDepth.Set(float64(r.queue.Len())) })
}

func (r *Relay) withMetrics(f func(m *stats.Metrics)) {
	if r.metrics != nil {
		f(r.metrics)
	}
}

func (r *Relay) trace(dir types.Direction, msu []byte) {
	if r.tracer == nil {
		return
	}
	if err := r.tracer.WriteMSU(dir, msu); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Debug("Failed to trace MSU")
	}
}

func typeName(msg []byte) string {
	if len(msg) == 0 {
		return "empty"
	}
	return sccp.MessageType(msg[0]).String()
}
