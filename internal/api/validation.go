package api

import (
	"fmt"
	"math"

	"github.com/ENACT/enact/internal/models"
)

// maxDurationSeconds caps a single tracked activity at 24 hours.
const maxDurationSeconds = 86400

// ValidateTrackRequest checks a track-emission request body.
func ValidateTrackRequest(req *TrackRequest) error {
	if req.ActivityType == "" {
		return fmt.Errorf("activity_type is required")
	}
	if math.IsNaN(req.DurationSeconds) || math.IsInf(req.DurationSeconds, 0) {
		return fmt.Errorf("duration_seconds must be a finite number")
	}
	if req.DurationSeconds < 0 {
		return fmt.Errorf("duration_seconds must not be negative")
	}
	if req.DurationSeconds > maxDurationSeconds {
		return fmt.Errorf("duration_seconds must not exceed %d", maxDurationSeconds)
	}
	return nil
}

// ValidateThresholdConfig checks an updated threshold configuration.
func ValidateThresholdConfig(cfg *models.ThresholdConfig) error {
	if cfg.DailyLimitGrams < 0 || cfg.WeeklyLimitGrams < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if cfg.DailyLimitGrams == 0 && cfg.WeeklyLimitGrams == 0 {
		return fmt.Errorf("at least one limit must be provided")
	}
	if cfg.DailyLimitGrams > 0 && cfg.WeeklyLimitGrams > 0 && cfg.WeeklyLimitGrams < cfg.DailyLimitGrams {
		return fmt.Errorf("weekly limit must not be below the daily limit")
	}
	return nil
}
