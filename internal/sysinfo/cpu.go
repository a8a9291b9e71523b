package sysinfo

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type cpuSample struct {
	idle  uint64
	total uint64
}

// CPUPercent returns the aggregate CPU utilization over a short sampling
// window. The two-sample delta mirrors how /proc/stat counters are meant to
// be consumed; a single read only yields boot-time averages.
func (r *Reader) CPUPercent() (float64, error) {
	first, err := readCPUSample()
	if err != nil {
		r.log.Debug("failed to read cpu stat", "error", err.Error())
		return 0, err
	}

	time.Sleep(r.sampleGap)

	second, err := readCPUSample()
	if err != nil {
		r.log.Debug("failed to read cpu stat", "error", err.Error())
		return 0, err
	}

	return cpuPercentBetween(first, second), nil
}

func readCPUSample() (cpuSample, error) {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return cpuSample{}, err
	}
	return parseCPUSample(data)
}

func parseCPUSample(data []byte) (cpuSample, error) {
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}

		fields := strings.Fields(line)[1:]
		if len(fields) < 4 {
			return cpuSample{}, fmt.Errorf("malformed cpu line: %q", line)
		}

		var sample cpuSample
		for i, val := range fields {
			v, _ := strconv.ParseUint(val, 10, 64)
			sample.total += v
			if i == 3 {
				sample.idle = v
			}
		}
		return sample, nil
	}

	return cpuSample{}, fmt.Errorf("no aggregate cpu line in stat data")
}

func cpuPercentBetween(first, second cpuSample) float64 {
	totalDelta := second.total - first.total
	if second.total <= first.total || totalDelta == 0 {
		return 0
	}

	idleDelta := second.idle - first.idle
	if idleDelta > totalDelta {
		return 0
	}

	return float64(totalDelta-idleDelta) / float64(totalDelta) * 100
}
