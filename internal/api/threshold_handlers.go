package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ENACT/enact/internal/aggregator"
	"github.com/ENACT/enact/internal/models"
)

type ThresholdHandlers struct {
	monitor *aggregator.Monitor
	logger  *slog.Logger
}

func NewThresholdHandlers(monitor *aggregator.Monitor, logger *slog.Logger) *ThresholdHandlers {
	return &ThresholdHandlers{
		monitor: monitor,
		logger:  logger,
	}
}

// GetThresholds handles GET /api/thresholds
func (h *ThresholdHandlers) GetThresholds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.monitor.Config(), h.logger)
}

// UpdateThresholds handles PUT /api/thresholds
func (h *ThresholdHandlers) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cfg models.ThresholdConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := ValidateThresholdConfig(&cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated := h.monitor.UpdateConfig(cfg)

	h.logger.Info("thresholds updated",
		"daily_limit_grams", updated.DailyLimitGrams,
		"weekly_limit_grams", updated.WeeklyLimitGrams,
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Thresholds updated successfully. Changes are active immediately.",
		"config":  updated,
	}, h.logger)
}
