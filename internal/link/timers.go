package link

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// TimerKind names one of the supervisory timers.
type TimerKind uint8

const (
	TimerSLTMPing TimerKind = iota + 1
	TimerSLTMPong
	TimerReset
	TimerKeepalive
)

// String returns the timer name.
func (k TimerKind) String() string {
	switch k {
	case TimerSLTMPing:
		return "sltm_ping"
	case TimerSLTMPong:
		return "sltm_pong"
	case TimerReset:
		return "reset"
	case TimerKeepalive:
		return "keepalive"
	default:
		return "unknown"
	}
}

// Scheduler arms and disarms one-shot timers. Scheduling a kind that is
// already armed replaces its deadline.
type Scheduler interface {
	Schedule(kind TimerKind, d time.Duration)
	Cancel(kind TimerKind)
	CancelAll()
}

// Timers is a Scheduler whose expirations are delivered on C. A monitor
// goroutine polls the armed deadlines, so an expiration already queued on C
// can outlive a later Cancel; consumers check their state before acting.
type Timers struct {
	C chan TimerKind

	pending map[TimerKind]time.Time
	mu      sync.Mutex
	tick    time.Duration
}

// NewTimers creates a scheduler checking deadlines every tick.
func NewTimers(tick time.Duration) *Timers {
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	return &Timers{
		C:       make(chan TimerKind, 8),
		pending: make(map[TimerKind]time.Time),
		tick:    tick,
	}
}

// Schedule arms kind to fire after d.
func (t *Timers) Schedule(kind TimerKind, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[kind] = time.Now().Add(d)
}

// Cancel disarms kind.
func (t *Timers) Cancel(kind TimerKind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, kind)
}

// armed reports whether kind is scheduled.
func (t *Timers) armed(kind TimerKind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[kind]
	return ok
}

// CancelAll disarms every timer.
func (t *Timers) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for kind := range t.pending {
		delete(t.pending, kind)
	}
}

// StartMonitor starts the goroutine that delivers expirations until ctx is
// done.
func (t *Timers) StartMonitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(t.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				for _, kind := range t.expire(now) {
					select {
					case t.C <- kind:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
}

// expire removes and returns the timers whose deadline is not after now.
func (t *Timers) expire(now time.Time) []TimerKind {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fired []TimerKind
	for kind, deadline := range t.pending {
		if !deadline.After(now) {
			fired = append(fired, kind)
			delete(t.pending, kind)
		}
	}
	if len(fired) > 0 {
		log.WithField("timers", fired).Debug("Timers expired")
	}
	return fired
}
