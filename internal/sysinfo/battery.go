package sysinfo

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// BatteryStats reports charge level for machines that have a battery.
type BatteryStats struct {
	Percent int
	Plugged bool
}

// Battery reads the first battery exposed under /sys/class/power_supply.
// Desktops and containers have none; the second return value is false then.
func (r *Reader) Battery() (BatteryStats, bool) {
	entries, err := os.ReadDir("/sys/class/power_supply")
	if err != nil {
		return BatteryStats{}, false
	}

	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "BAT") {
			continue
		}

		base := filepath.Join("/sys/class/power_supply", e.Name())

		capRaw, err := os.ReadFile(filepath.Join(base, "capacity"))
		if err != nil {
			continue
		}
		percent, err := strconv.Atoi(strings.TrimSpace(string(capRaw)))
		if err != nil {
			continue
		}

		status, _ := os.ReadFile(filepath.Join(base, "status"))
		plugged := strings.TrimSpace(string(status)) != "Discharging"

		return BatteryStats{Percent: percent, Plugged: plugged}, true
	}

	return BatteryStats{}, false
}
