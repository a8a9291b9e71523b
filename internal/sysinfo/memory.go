package sysinfo

import (
	"os"
	"strconv"
	"strings"
)

// MemoryStats summarizes /proc/meminfo.
type MemoryStats struct {
	TotalKB     uint64
	AvailableKB uint64
	UsedKB      uint64
}

// UsedPercent returns used memory as a percentage of total.
func (m MemoryStats) UsedPercent() float64 {
	if m.TotalKB == 0 {
		return 0
	}
	return float64(m.UsedKB) / float64(m.TotalKB) * 100
}

// Memory reads current memory usage. A zero-value result means the
// information was unavailable.
func (r *Reader) Memory() MemoryStats {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		r.log.Debug("failed to read meminfo", "error", err.Error())
		return MemoryStats{}
	}
	return parseMemInfo(data)
}

func parseMemInfo(data []byte) MemoryStats {
	stats := make(map[string]uint64)

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		key := strings.TrimSuffix(fields[0], ":")
		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		stats[key] = value
	}

	total := stats["MemTotal"]
	avail := stats["MemAvailable"]
	if avail > total {
		avail = total
	}

	return MemoryStats{
		TotalKB:     total,
		AvailableKB: avail,
		UsedKB:      total - avail,
	}
}
