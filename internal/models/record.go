package models

import (
	"strings"
	"time"
)

// EmissionRecord represents one finalized emission observation. Records are
// immutable once appended to a day partition and are never rewritten.
type EmissionRecord struct {
	ID              string         `json:"id"`
	Timestamp       time.Time      `json:"timestamp"`
	ActivityType    ActivityType   `json:"activity_type"`
	DurationSeconds float64        `json:"duration_seconds"`
	EnergyKWh       float64        `json:"energy_kwh"`
	CO2Grams        float64        `json:"co2_grams"`
	PowerWatts      float64        `json:"power_watts"`
	CPULoadFactor   float64        `json:"cpu_load_factor"`
	Method          EstimateMethod `json:"method"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// ActivityType classifies what the user was doing during an observation.
type ActivityType string

const (
	ActivityYouTube       ActivityType = "youtube"
	ActivityOTT           ActivityType = "ott"
	ActivityBrowsing      ActivityType = "browsing"
	ActivityGmail         ActivityType = "gmail"
	ActivityCodeExecution ActivityType = "code_execution"
	ActivityIdle          ActivityType = "idle"
	ActivityStreaming     ActivityType = "streaming"
	ActivityEmail         ActivityType = "email"
	ActivityCoding        ActivityType = "coding"
	ActivityUnknown       ActivityType = "unknown"
)

// NormalizeActivityType lowercases and trims an activity type string.
// Unrecognized values are preserved so the benchmark table can apply its
// default wattage; an empty value becomes ActivityUnknown.
func NormalizeActivityType(raw string) ActivityType {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ActivityUnknown
	}
	return ActivityType(s)
}

// EstimateMethod identifies which estimation path produced a record.
type EstimateMethod string

const (
	// MethodStandardBenchmark is the built-in wattage-table path.
	MethodStandardBenchmark EstimateMethod = "standard_benchmark"
	// MethodCodeCarbonEnhanced means a live CodeCarbon measurement service
	// supplied the figures.
	MethodCodeCarbonEnhanced EstimateMethod = "codecarbon_enhanced"
	// MethodCodeCarbonBenchmark means the CodeCarbon benchmark table was
	// used without a live measurement.
	MethodCodeCarbonBenchmark EstimateMethod = "codecarbon_benchmark"
)

// EstimateResult holds the energy figures derived for a single activity.
type EstimateResult struct {
	EnergyKWh     float64        `json:"energy_kwh"`
	CO2Grams      float64        `json:"co2_grams"`
	PowerWatts    float64        `json:"power_watts"`
	CPULoadFactor float64        `json:"cpu_load_factor"`
	Method        EstimateMethod `json:"method"`
}
