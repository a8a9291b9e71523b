package sysinfo

import (
	"os"
	"strconv"
	"strings"
)

// NetStats holds cumulative byte counters for the default route interface.
type NetStats struct {
	RxBytes uint64
	TxBytes uint64
}

// NetBytes reads cumulative receive/transmit counters for the interface
// carrying the default route. The second return value is false when no
// default interface can be determined.
func (r *Reader) NetBytes() (NetStats, bool) {
	iface := r.defaultInterface()
	if iface == "" {
		return NetStats{}, false
	}

	data, err := os.ReadFile("/proc/net/dev")
	if err != nil {
		r.log.Debug("failed to read net dev", "error", err.Error())
		return NetStats{}, false
	}

	return parseNetDev(data, iface)
}

func (r *Reader) defaultInterface() string {
	data, err := os.ReadFile("/proc/net/route")
	if err != nil {
		r.log.Debug("failed to read net route", "error", err.Error())
		return ""
	}
	return parseDefaultInterface(data)
}

func parseDefaultInterface(data []byte) string {
	lines := strings.Split(string(data), "\n")
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// Destination 00000000 marks the default route.
		if fields[1] == "00000000" {
			return fields[0]
		}
	}
	return ""
}

func parseNetDev(data []byte, iface string) (NetStats, bool) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, iface+":") {
			continue
		}

		fields := strings.Fields(strings.TrimPrefix(line, iface+":"))
		if len(fields) < 9 {
			return NetStats{}, false
		}

		rx, _ := strconv.ParseUint(fields[0], 10, 64)
		tx, _ := strconv.ParseUint(fields[8], 10, 64)
		return NetStats{RxBytes: rx, TxBytes: tx}, true
	}
	return NetStats{}, false
}
