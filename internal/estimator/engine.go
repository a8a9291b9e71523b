// Package estimator converts classified activity into energy and CO2
// figures. The engine is pure computation over its inputs plus one live CPU
// utilization read; defaults absorb every missing external input, so an
// estimate only fails for malformed arguments.
package estimator

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/ENACT/enact/internal/codecarbon"
	"github.com/ENACT/enact/internal/models"
)

// EstimationError reports malformed estimation input. Missing external data
// (CPU utilization, benchmark entries, provider) never produces one.
type EstimationError struct {
	Reason string
}

func (e *EstimationError) Error() string {
	return "estimation: " + e.Reason
}

// CPUReader supplies instantaneous CPU utilization in percent.
type CPUReader interface {
	CPUPercent() (float64, error)
}

// EnhancedProvider is the optional measurement-backed estimation source.
// Implementations may fail freely; the engine falls back to the benchmark
// path on any error.
type EnhancedProvider interface {
	Estimate(ctx context.Context, activityType models.ActivityType, durationSeconds, cpuPercent float64) (*models.EstimateResult, error)
}

// baseWattages holds published benchmark power draws per activity.
var baseWattages = map[models.ActivityType]float64{
	models.ActivityYouTube:       15,
	models.ActivityOTT:           18,
	models.ActivityBrowsing:      8,
	models.ActivityGmail:         5,
	models.ActivityCodeExecution: 50,
	models.ActivityIdle:          3,
	models.ActivityStreaming:     18,
	models.ActivityEmail:         5,
	models.ActivityCoding:        25,
}

const defaultWattage = 10.0

// Engine estimates emission impact from activity type and duration.
type Engine struct {
	cpu           CPUReader
	provider      EnhancedProvider
	gridIntensity float64
	logger        *slog.Logger
}

// NewEngine constructs an Engine. provider may be nil when no enhanced
// estimation source is available. countryCode selects the grid intensity;
// gridIntensityOverride (when positive) wins over the country lookup.
func NewEngine(cpu CPUReader, provider EnhancedProvider, countryCode string, gridIntensityOverride float64, logger *slog.Logger) *Engine {
	intensity := codecarbon.GridIntensity(countryCode)
	if gridIntensityOverride > 0 {
		intensity = gridIntensityOverride
	}

	return &Engine{
		cpu:           cpu,
		provider:      provider,
		gridIntensity: intensity,
		logger:        logger,
	}
}

// GridIntensity returns the configured grid intensity in g CO2/kWh.
func (e *Engine) GridIntensity() float64 {
	return e.gridIntensity
}

// Estimate derives energy and CO2 figures for one activity observation.
//
// For code_execution with preferEnhanced set, a configured provider is asked
// first and its result used verbatim; any provider failure falls back
// silently to the standard benchmark path.
func (e *Engine) Estimate(ctx context.Context, rawType string, durationSeconds float64, metadata map[string]any, preferEnhanced bool) (*models.EstimateResult, error) {
	if durationSeconds < 0 || math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		return nil, &EstimationError{Reason: fmt.Sprintf("invalid duration %v", durationSeconds)}
	}

	activityType := models.NormalizeActivityType(rawType)
	cpuPercent, loadFactor := e.cpuLoad()

	if preferEnhanced && activityType == models.ActivityCodeExecution && e.provider != nil {
		res, err := e.provider.Estimate(ctx, activityType, durationSeconds, cpuPercent)
		if err == nil && res != nil {
			return res, nil
		}
		if err != nil {
			e.logger.Debug("enhanced provider unavailable, using standard benchmark",
				"activity_type", activityType,
				"error", err.Error())
		}
	}

	baseWatts, ok := baseWattages[activityType]
	if !ok {
		baseWatts = defaultWattage
	}

	powerWatts := baseWatts * loadFactor
	energyKWh := powerWatts * (durationSeconds / 3600) / 1000
	co2Grams := energyKWh * e.gridIntensity

	// Metadata multipliers compose on energy, CO2 and power together so the
	// co2 = energy * intensity invariant survives the adjustment.
	adjust := metadataAdjustment(metadata)
	powerWatts *= adjust
	energyKWh *= adjust
	co2Grams *= adjust

	return &models.EstimateResult{
		EnergyKWh:     round6(energyKWh),
		CO2Grams:      round4(co2Grams),
		PowerWatts:    round2(powerWatts),
		CPULoadFactor: round2(loadFactor),
		Method:        models.MethodStandardBenchmark,
	}, nil
}

// cpuLoad reads utilization and derives the power multiplier. A failed read
// yields the neutral factor 1.0 with utilization reported as 50%.
func (e *Engine) cpuLoad() (cpuPercent, loadFactor float64) {
	percent, err := e.cpu.CPUPercent()
	if err != nil {
		return 50, 1.0
	}

	factor := percent / 50
	if factor < 0.5 {
		factor = 0.5
	}
	if factor > 2.0 {
		factor = 2.0
	}
	return percent, factor
}

// metadataAdjustment multiplies the independent, composable factors derived
// from record metadata.
func metadataAdjustment(metadata map[string]any) float64 {
	adjust := 1.0

	switch stringValue(metadata, "quality") {
	case "high":
		adjust *= 1.3
	case "low":
		adjust *= 0.7
	}

	switch stringValue(metadata, "device_type") {
	case "mobile":
		adjust *= 0.5
	case "server":
		adjust *= 1.5
	}

	return adjust
}

func stringValue(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func round2(v float64) float64 { return roundTo(v, 100) }
func round4(v float64) float64 { return roundTo(v, 10000) }
func round6(v float64) float64 { return roundTo(v, 1000000) }

func roundTo(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}
