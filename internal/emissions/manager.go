// Package emissions wires the estimation engine, the log store, the
// aggregator, and the threshold monitor into the operations the API layer
// and the background sampler both call.
package emissions

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ENACT/enact/internal/aggregator"
	"github.com/ENACT/enact/internal/emissionlog"
	"github.com/ENACT/enact/internal/estimator"
	"github.com/ENACT/enact/internal/models"
)

// weeklyWindowDays is the trailing window the weekly threshold covers.
const weeklyWindowDays = 7

// Metrics receives pipeline counters. The interface keeps the collector
// optional; a nil Metrics disables instrumentation.
type Metrics interface {
	RecordTracked(activityType, method string, co2Grams float64)
	AlertRaised(thresholdType string)
}

// Manager orchestrates the track/query pipeline.
type Manager struct {
	engine  *estimator.Engine
	store   *emissionlog.Store
	agg     *aggregator.Aggregator
	monitor *aggregator.Monitor
	logger  *slog.Logger
	metrics Metrics
}

// NewManager constructs a Manager.
func NewManager(engine *estimator.Engine, store *emissionlog.Store, agg *aggregator.Aggregator, monitor *aggregator.Monitor, logger *slog.Logger) *Manager {
	return &Manager{
		engine:  engine,
		store:   store,
		agg:     agg,
		monitor: monitor,
		logger:  logger,
	}
}

// SetMetrics attaches a metrics sink. Call before serving traffic.
func (m *Manager) SetMetrics(metrics Metrics) {
	m.metrics = metrics
}

// Monitor exposes the threshold monitor for the admin API.
func (m *Manager) Monitor() *aggregator.Monitor {
	return m.monitor
}

// TrackResult is the response to one tracked activity.
type TrackResult struct {
	Record      models.EmissionRecord  `json:"record"`
	TodayTotal  float64                `json:"today_total"`
	WeeklyTotal float64                `json:"weekly_total"`
	Alert       *models.ThresholdAlert `json:"threshold_alert,omitempty"`
}

// TrackActivity estimates, durably records, and threshold-checks a single
// activity observation. Estimation always succeeds for well-formed input
// even with every collaborator down; a storage failure is returned as-is
// because a non-durable record must never be reported as tracked.
func (m *Manager) TrackActivity(ctx context.Context, activityType string, durationSeconds float64, metadata map[string]any) (*TrackResult, error) {
	estimate, err := m.engine.Estimate(ctx, activityType, durationSeconds, metadata, true)
	if err != nil {
		return nil, err
	}

	record := models.EmissionRecord{
		ID:              uuid.NewString(),
		Timestamp:       time.Now(),
		ActivityType:    models.NormalizeActivityType(activityType),
		DurationSeconds: durationSeconds,
		EnergyKWh:       estimate.EnergyKWh,
		CO2Grams:        estimate.CO2Grams,
		PowerWatts:      estimate.PowerWatts,
		CPULoadFactor:   estimate.CPULoadFactor,
		Method:          estimate.Method,
		Metadata:        metadata,
	}

	if err := m.store.Append(record, ""); err != nil {
		return nil, err
	}

	todayTotal, err := m.agg.DailyTotal(emissionlog.Today())
	if err != nil {
		return nil, err
	}
	weeklyTotal, err := m.agg.RollingTotal(weeklyWindowDays)
	if err != nil {
		return nil, err
	}

	result := &TrackResult{
		Record:      record,
		TodayTotal:  round4(todayTotal),
		WeeklyTotal: round4(weeklyTotal),
		Alert:       m.monitor.CheckAndAdvise(ctx, todayTotal, weeklyTotal),
	}

	if m.metrics != nil {
		m.metrics.RecordTracked(string(record.ActivityType), string(record.Method), record.CO2Grams)
		if result.Alert != nil {
			m.metrics.AlertRaised(string(result.Alert.Type))
		}
	}

	if result.Alert != nil {
		m.logger.Info("emission threshold crossed",
			"threshold_type", result.Alert.Type,
			"current_grams", result.Alert.CurrentGrams,
			"limit_grams", result.Alert.LimitGrams,
			"advisory_model", result.Alert.AdvisoryModel)
	}

	return result, nil
}

// DayTotals summarizes one date's records for the date-detail view.
type DayTotals struct {
	TotalEmissionsGrams  float64 `json:"total_emissions_grams"`
	TotalEnergyKWh       float64 `json:"total_energy_kwh"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	ActivityCount        int     `json:"activity_count"`
}

// DayDetail carries a date's full record sequence plus its rollup.
type DayDetail struct {
	Date    string                  `json:"date"`
	Records []models.EmissionRecord `json:"records"`
	Summary DayTotals               `json:"summary"`
}

// EmissionsForDate loads a date's records and totals. An empty date or the
// literal "today" resolves to the current date.
func (m *Manager) EmissionsForDate(date string) (*DayDetail, error) {
	if date == "" || date == "today" {
		date = emissionlog.Today()
	}

	records, err := m.store.Load(date)
	if err != nil {
		return nil, err
	}

	detail := &DayDetail{
		Date:    date,
		Records: records,
		Summary: DayTotals{ActivityCount: len(records)},
	}
	for _, r := range records {
		detail.Summary.TotalEmissionsGrams += r.CO2Grams
		detail.Summary.TotalEnergyKWh += r.EnergyKWh
		detail.Summary.TotalDurationSeconds += r.DurationSeconds
	}
	detail.Summary.TotalEmissionsGrams = round4(detail.Summary.TotalEmissionsGrams)
	detail.Summary.TotalEnergyKWh = round6(detail.Summary.TotalEnergyKWh)
	detail.Summary.TotalDurationSeconds = round2(detail.Summary.TotalDurationSeconds)

	return detail, nil
}

// Summary aggregates daily summaries oldest-first. With allHistory set it
// scans every stored partition and returns the most recent days of those;
// otherwise it covers the fixed trailing window. Reads never synthesize or
// persist data.
func (m *Manager) Summary(days int, allHistory bool) (models.PeriodSummary, error) {
	if allHistory {
		return m.agg.HistorySummaries(days)
	}
	return m.agg.WindowSummaries(days)
}

func round2(v float64) float64 { return roundTo(v, 100) }
func round4(v float64) float64 { return roundTo(v, 10000) }
func round6(v float64) float64 { return roundTo(v, 1000000) }

func roundTo(v, scale float64) float64 {
	if v < 0 {
		return -roundTo(-v, scale)
	}
	return float64(int64(v*scale+0.5)) / scale
}
