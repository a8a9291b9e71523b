// Package api exposes the HTTP surface of the tracking service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/ENACT/enact/internal/emissionlog"
	"github.com/ENACT/enact/internal/emissions"
	"github.com/ENACT/enact/internal/estimator"
	"github.com/ENACT/enact/internal/sysinfo"
)

// Handler serves the public tracking and query endpoints.
type Handler struct {
	manager *emissions.Manager
	sysinfo *sysinfo.Reader
	logger  *slog.Logger
	started time.Time
}

// NewHandler creates a new Handler.
func NewHandler(manager *emissions.Manager, reader *sysinfo.Reader, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		sysinfo: reader,
		logger:  logger,
		started: time.Now(),
	}
}

// TrackRequest represents a track-emission request body.
type TrackRequest struct {
	ActivityType    string         `json:"activity_type"`
	DurationSeconds float64        `json:"duration_seconds"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// TrackEmission handles POST /api/track-emission
func (h *Handler) TrackEmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := ValidateTrackRequest(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.manager.TrackActivity(r.Context(), req.ActivityType, req.DurationSeconds, req.Metadata)
	if err != nil {
		var estErr *estimator.EstimationError
		if errors.As(err, &estErr) {
			http.Error(w, estErr.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to track activity", "activity_type", req.ActivityType, "error", err)
		http.Error(w, "Failed to track activity", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}

// GetEmissionsByDate handles GET /api/emissions/{date}. The date segment
// accepts YYYY-MM-DD or the literal "today".
func (h *Handler) GetEmissionsByDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := strings.TrimPrefix(r.URL.Path, "/api/emissions/")
	if date == "" || strings.Contains(date, "/") {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}
	if date != "today" {
		if _, err := time.Parse(emissionlog.DateLayout, date); err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	detail, err := h.manager.EmissionsForDate(date)
	if err != nil {
		h.logger.Error("failed to load emissions", "date", date, "error", err)
		http.Error(w, "Failed to load emissions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, detail, h.logger)
}

// GetEmissionsSummary handles GET /api/emissions-summary?days=N&all_history=true
func (h *Handler) GetEmissionsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	allHistory := false
	if v := r.URL.Query().Get("all_history"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "all_history must be a boolean", http.StatusBadRequest)
			return
		}
		allHistory = parsed
	}

	period, err := h.manager.Summary(days, allHistory)
	if err != nil {
		h.logger.Error("failed to build summary", "days", days, "error", err)
		http.Error(w, "Failed to build summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, period, h.logger)
}

// GetSystemMetrics handles GET /api/system-metrics
func (h *Handler) GetSystemMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.sysinfo.Snapshot(), h.logger)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}, h.logger)
}

// Info handles GET /api/info
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := h.manager.Monitor().Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "enact",
		"thresholds": map[string]any{
			"daily_limit_grams":  cfg.DailyLimitGrams,
			"weekly_limit_grams": cfg.WeeklyLimitGrams,
		},
	}, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
