package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Reporter outputs statistics to console and/or file.
type Reporter struct {
	collector   *Collector
	intervalSec int
	exportFile  string
	instanceID  string
}

// NewReporter creates a new statistics reporter. instanceID identifies the
// relay process in exported files.
func NewReporter(collector *Collector, intervalSec int, exportFile, instanceID string) *Reporter {
	return &Reporter{
		collector:   collector,
		intervalSec: intervalSec,
		exportFile:  exportFile,
		instanceID:  instanceID,
	}
}

// StartPeriodicReport begins periodic statistics reporting in a goroutine.
func (r *Reporter) StartPeriodicReport(ctx context.Context) {
	if r.intervalSec <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Duration(r.intervalSec) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Println(r.FormatReport())
			}
		}
	}()
}

// PrintFinalReport prints the final statistics summary.
func (r *Reporter) PrintFinalReport() {
	r.collector.Finish()
	fmt.Println(r.FormatReport())
}

// ExportJSON exports statistics to a JSON file.
func (r *Reporter) ExportJSON() error {
	if r.exportFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(r.exportMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats JSON: %w", err)
	}

	if err := os.WriteFile(r.exportFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file %s: %w", r.exportFile, err)
	}

	log.WithField("file", r.exportFile).Info("Statistics exported to JSON")
	return nil
}

func (r *Reporter) exportMap() map[string]interface{} {
	snap := r.collector.Snapshot()
	min, avg, max, p99 := snap.ResetDurationStats()

	export := map[string]interface{}{
		"instance_id":      r.instanceID,
		"start_time":       snap.StartTime.Format(time.RFC3339),
		"end_time":         snap.EndTime.Format(time.RFC3339),
		"duration_sec":     snap.Duration().Seconds(),
		"messages":         map[string]interface{}{},
		"link_transitions": snap.LinkTransitions,
		"resets": map[string]interface{}{
			"started":   snap.ResetsStarted,
			"completed": snap.ResetsCompleted,
			"retries":   snap.ResetRetries,
		},
		"reset_duration_ms": map[string]interface{}{
			"min": float64(min) / float64(time.Millisecond),
			"avg": float64(avg) / float64(time.Millisecond),
			"max": float64(max) / float64(time.Millisecond),
			"p99": float64(p99) / float64(time.Millisecond),
		},
		"anomalies":     snap.Anomalies,
		"sltm_sent":     snap.SLTMSent,
		"sltm_timeouts": snap.SLTMTimeouts,
		"msc_connects":  snap.MSCConnects,
	}

	msgs := export["messages"].(map[string]interface{})
	for name, s := range snap.MessageStats {
		msgs[name] = map[string]interface{}{
			"received":  s.Received,
			"forwarded": s.Forwarded,
			"patched":   s.Patched,
			"queued":    s.Queued,
			"dropped":   s.Dropped,
			"malformed": s.Malformed,
		}
	}
	return export
}

// FormatReport generates a formatted statistics report string.
func (r *Reporter) FormatReport() string {
	snap := r.collector.Snapshot()
	elapsed := snap.Duration()
	min, avg, max, _ := snap.ResetDurationStats()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n=== UDT Relay Statistics (elapsed: %s) ===\n", elapsed.Round(time.Second)))
	sb.WriteString("Messages:\n")

	keys := make([]string, 0, len(snap.MessageStats))
	for name := range snap.MessageStats {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	for _, name := range keys {
		s := snap.MessageStats[name]
		sb.WriteString(fmt.Sprintf("  %-12s recv=%-6d fwd=%-6d patched=%-6d queued=%-6d dropped=%-6d malformed=%-6d\n",
			name+":", s.Received, s.Forwarded, s.Patched, s.Queued, s.Dropped, s.Malformed))
	}

	sb.WriteString("Link:\n")
	transitions := make([]string, 0, len(snap.LinkTransitions))
	for name := range snap.LinkTransitions {
		transitions = append(transitions, name)
	}
	sort.Strings(transitions)
	for _, name := range transitions {
		sb.WriteString(fmt.Sprintf("  %-14s %d\n", name+":", snap.LinkTransitions[name]))
	}
	sb.WriteString(fmt.Sprintf("  SLTM sent: %d  |  SLTM timeouts: %d  |  MSC connects: %d  |  Anomalies: %d\n",
		snap.SLTMSent, snap.SLTMTimeouts, snap.MSCConnects, snap.Anomalies))

	sb.WriteString("Resets:\n")
	sb.WriteString(fmt.Sprintf("  Started: %d  |  Completed: %d  |  Retries: %d\n",
		snap.ResetsStarted, snap.ResetsCompleted, snap.ResetRetries))
	if len(snap.ResetDurations) > 0 {
		sb.WriteString(fmt.Sprintf("  Min: %s  |  Avg: %s  |  Max: %s\n",
			min.Round(time.Millisecond), avg.Round(time.Millisecond), max.Round(time.Millisecond)))
	}

	total := snap.Totals()
	if elapsed.Seconds() > 0 {
		sb.WriteString("Throughput:\n")
		sb.WriteString(fmt.Sprintf("  %.1f msg/s forwarded\n", float64(total.Forwarded)/elapsed.Seconds()))
	}

	sb.WriteString("================================================\n")
	return sb.String()
}
