// Package sysinfo reads host utilization figures from /proc and /sys.
// Every reader degrades to a zero value when the underlying file is missing
// or malformed; callers treat absent metrics as "not available", never as an
// error worth failing an estimate over.
package sysinfo

import (
	"log/slog"
	"time"
)

// Reader collects point-in-time system metrics for estimation and for the
// sampler's metadata snapshots.
type Reader struct {
	log *slog.Logger

	// sampleGap is the delay between the two /proc/stat samples used to
	// derive an instantaneous CPU utilization figure.
	sampleGap time.Duration
}

// NewReader constructs a Reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{
		log:       logger,
		sampleGap: 100 * time.Millisecond,
	}
}

// Snapshot gathers the metrics attached to sampler-originated records.
// Unavailable metrics are omitted from the map rather than reported as zero.
func (r *Reader) Snapshot() map[string]any {
	snap := make(map[string]any)

	if cpu, err := r.CPUPercent(); err == nil {
		snap["cpu_percent"] = round2(cpu)
	}

	if mem := r.Memory(); mem.TotalKB > 0 {
		snap["memory_percent"] = round2(mem.UsedPercent())
		snap["memory_used_gb"] = round2(float64(mem.UsedKB) / (1024 * 1024))
	}

	if net, ok := r.NetBytes(); ok {
		snap["network_bytes_sent"] = net.TxBytes
		snap["network_bytes_recv"] = net.RxBytes
	}

	if bat, ok := r.Battery(); ok {
		snap["battery_percent"] = bat.Percent
		snap["battery_plugged"] = bat.Plugged
	}

	return snap
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
