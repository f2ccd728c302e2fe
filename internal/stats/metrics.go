package stats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alexcesaro/statsd.v2"
)

const namespace = "udt_relay"

// Message outcomes used as the "outcome" label.
const (
	OutcomeReceived  = "received"
	OutcomeForwarded = "forwarded"
	OutcomePatched   = "patched"
	OutcomeQueued    = "queued"
	OutcomeDropped   = "dropped"
	OutcomeMalformed = "malformed"
)

// Metrics holds the Prometheus metrics of the relay.
type Metrics struct {
	Registry *prometheus.Registry

	Messages     *prometheus.CounterVec
	Resets       *prometheus.CounterVec
	Transitions  *prometheus.CounterVec
	LinkState    prometheus.Gauge
	LinkUp       prometheus.Gauge
	MSCConnected prometheus.Gauge
	QueueDepth   prometheus.Gauge

	// Statsd mirrors the counters to a statsd daemon when set.
	Statsd *statsd.Client
}

// NewMetrics creates a registry with the Go and process collectors and the
// relay metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		PidFn:     func() (int, error) { return os.Getpid(), nil },
		Namespace: namespace,
	}))

	m := &Metrics{
		Registry: reg,
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "SCCP messages by direction, message type and outcome",
		}, []string{"direction", "type", "outcome"}),
		Resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "BSSMAP reset procedures by event",
		}, []string{"event"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_transitions_total",
			Help:      "Link state changes",
		}, []string{"from", "to"}),
		LinkState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_state",
			Help:      "Link state: 0 down, 1 up, 2 reset",
		}),
		LinkUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_available",
			Help:      "1 when the BSC link is available",
		}),
		MSCConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "msc_connected",
			Help:      "1 while the MSC connection is established",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_queue_depth",
			Help:      "Messages waiting for the MSC",
		}),
	}
	reg.MustRegister(m.Messages, m.Resets, m.Transitions, m.LinkState, m.LinkUp, m.MSCConnected, m.QueueDepth)
	return m
}

// EnableStatsd starts mirroring counters to the statsd daemon at addr.
func (m *Metrics) EnableStatsd(addr, prefix string) error {
	c, err := statsd.New(statsd.Address(addr), statsd.Prefix(prefix))
	if err != nil {
		return fmt.Errorf("failed to create statsd client for %s: %w", addr, err)
	}
	m.Statsd = c
	return nil
}

// Message counts one message outcome.
func (m *Metrics) Message(direction, msgType, outcome string) {
	m.Messages.WithLabelValues(direction, msgType, outcome).Inc()
	if m.Statsd != nil {
		m.Statsd.Increment(direction + "." + msgType + "." + outcome)
	}
}

// Transition records a link state change.
func (m *Metrics) Transition(from, to string, state int) {
	m.Transitions.WithLabelValues(from, to).Inc()
	m.LinkState.Set(float64(state))
	if m.Statsd != nil {
		m.Statsd.Increment("link." + from + "_to_" + to)
		m.Statsd.Gauge("link.state", state)
	}
}

// Reset records a step of a reset procedure: started, completed or retried.
func (m *Metrics) Reset(event string) {
	m.Resets.WithLabelValues(event).Inc()
	if m.Statsd != nil {
		m.Statsd.Increment("reset." + event)
	}
}

// Close flushes and closes the statsd client, if any.
func (m *Metrics) Close() {
	if m.Statsd != nil {
		m.Statsd.Close()
	}
}

// Handler returns an HTTP handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.WithField("address", addr).Info("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()
}
