package models

import "time"

// ThresholdType distinguishes the daily limit from the trailing-week limit.
type ThresholdType string

const (
	ThresholdDaily  ThresholdType = "daily"
	ThresholdWeekly ThresholdType = "weekly"
)

// ThresholdConfig holds the emission limits the monitor checks against.
// Limits are runtime-mutable through the admin API.
type ThresholdConfig struct {
	DailyLimitGrams  float64   `json:"daily_limit_grams"`
	WeeklyLimitGrams float64   `json:"weekly_limit_grams"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultThresholdConfig returns the built-in limits: 2 g CO2 per day and
// 10 g CO2 over the trailing seven days.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		DailyLimitGrams:  2.0,
		WeeklyLimitGrams: 10.0,
	}
}

// ThresholdAlert is the advisory signal raised when a limit is crossed.
// Advisory is always non-empty: when the external generator is unreachable a
// deterministic local fallback fills it in.
type ThresholdAlert struct {
	Type          ThresholdType `json:"type"`
	CurrentGrams  float64       `json:"current_grams"`
	LimitGrams    float64       `json:"limit_grams"`
	Advisory      string        `json:"advisory"`
	AdvisoryModel string        `json:"advisory_model"`
}
