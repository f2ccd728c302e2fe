package stats

import (
	"sort"
	"sync"
	"time"

	"udt-relay/pkg/types"
)

// Collector aggregates relay statistics.
type Collector struct {
	StartTime time.Time
	EndTime   time.Time

	// MessageStats is keyed by "<direction>/<SCCP type>", e.g. "bsc/UDT".
	MessageStats map[string]*types.MessageStats

	LinkTransitions map[string]uint64
	ResetsStarted   uint64
	ResetsCompleted uint64
	ResetRetries    uint64
	Anomalies       uint64
	SLTMSent        uint64
	SLTMTimeouts    uint64
	MSCConnects     uint64

	ResetDurations []time.Duration

	mu sync.Mutex
}

// NewCollector creates a new statistics collector.
func NewCollector() *Collector {
	return &Collector{
		StartTime:       time.Now(),
		MessageStats:    make(map[string]*types.MessageStats),
		LinkTransitions: make(map[string]uint64),
	}
}

// Key builds the MessageStats key for a direction and message type.
func Key(dir types.Direction, msgType string) string {
	return dir.String() + "/" + msgType
}

func (c *Collector) getOrCreate(dir types.Direction, msgType string) *types.MessageStats {
	k := Key(dir, msgType)
	if _, ok := c.MessageStats[k]; !ok {
		c.MessageStats[k] = &types.MessageStats{}
	}
	return c.MessageStats[k]
}

// RecordReceived records a message arriving from dir.
func (c *Collector) RecordReceived(dir types.Direction, msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(dir, msgType).Received++
}

// RecordForwarded records a message from dir handed to the other peer.
func (c *Collector) RecordForwarded(dir types.Direction, msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(dir, msgType).Forwarded++
}

// RecordPatched records a message from dir whose addresses were rewritten.
func (c *Collector) RecordPatched(dir types.Direction, msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(dir, msgType).Patched++
}

// RecordQueued records a message from dir parked in the pending queue.
func (c *Collector) RecordQueued(dir types.Direction, msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(dir, msgType).Queued++
}

// RecordDropped records a message from dir that was discarded.
func (c *Collector) RecordDropped(dir types.Direction, msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(dir, msgType).Dropped++
}

// RecordMalformed records a message from dir that failed to parse.
func (c *Collector) RecordMalformed(dir types.Direction, msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(dir, msgType).Malformed++
}

// RecordTransition counts a link state change.
func (c *Collector) RecordTransition(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LinkTransitions[from+"->"+to]++
}

// RecordResetStarted counts a reset procedure entering its wait for an ack.
func (c *Collector) RecordResetStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ResetsStarted++
}

// RecordResetCompleted counts an acknowledged reset and how long it took.
func (c *Collector) RecordResetCompleted(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ResetsCompleted++
	c.ResetDurations = append(c.ResetDurations, d)
}

// RecordResetRetry counts a reset resent after the reset timer expired.
func (c *Collector) RecordResetRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ResetRetries++
}

// RecordAnomaly counts a protocol anomaly such as an unexpected ack.
func (c *Collector) RecordAnomaly() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Anomalies++
}

// RecordSLTMSent counts a link test sent to the BSC.
func (c *Collector) RecordSLTMSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SLTMSent++
}

// RecordSLTMTimeout counts a link test left unanswered.
func (c *Collector) RecordSLTMTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SLTMTimeouts++
}

// RecordMSCConnect counts an established MSC connection.
func (c *Collector) RecordMSCConnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.MSCConnects++
}

// Finish marks the end of the collection period.
func (c *Collector) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EndTime = time.Now()
}

// Duration returns the elapsed time.
func (c *Collector) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.EndTime.IsZero() {
		return time.Since(c.StartTime)
	}
	return c.EndTime.Sub(c.StartTime)
}

// Totals sums the per-type counters.
func (c *Collector) Totals() types.MessageStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total types.MessageStats
	for _, s := range c.MessageStats {
		total.Received += s.Received
		total.Forwarded += s.Forwarded
		total.Patched += s.Patched
		total.Queued += s.Queued
		total.Dropped += s.Dropped
		total.Malformed += s.Malformed
	}
	return total
}

// ResetDurationStats returns min, avg, max, and p99 reset procedure times.
func (c *Collector) ResetDurationStats() (min, avg, max, p99 time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.ResetDurations) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]time.Duration, len(c.ResetDurations))
	copy(sorted, c.ResetDurations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	min = sorted[0]
	max = sorted[len(sorted)-1]

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	avg = total / time.Duration(len(sorted))

	p99Idx := int(float64(len(sorted)) * 0.99)
	if p99Idx >= len(sorted) {
		p99Idx = len(sorted) - 1
	}
	p99 = sorted[p99Idx]

	return
}

// Snapshot returns a copy of the current statistics (thread-safe).
func (c *Collector) Snapshot() *Collector {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &Collector{
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		MessageStats:    make(map[string]*types.MessageStats, len(c.MessageStats)),
		LinkTransitions: make(map[string]uint64, len(c.LinkTransitions)),
		ResetsStarted:   c.ResetsStarted,
		ResetsCompleted: c.ResetsCompleted,
		ResetRetries:    c.ResetRetries,
		Anomalies:       c.Anomalies,
		SLTMSent:        c.SLTMSent,
		SLTMTimeouts:    c.SLTMTimeouts,
		MSCConnects:     c.MSCConnects,
		ResetDurations:  make([]time.Duration, len(c.ResetDurations)),
	}
	copy(snap.ResetDurations, c.ResetDurations)

	for k, v := range c.MessageStats {
		s := *v
		snap.MessageStats[k] = &s
	}
	for k, v := range c.LinkTransitions {
		snap.LinkTransitions[k] = v
	}

	return snap
}
