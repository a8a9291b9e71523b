// Package aggregator computes per-day and rolling emission totals from the
// log store and evaluates them against configured thresholds. All totals are
// recomputed from partitions on demand; nothing here caches or persists.
package aggregator

import (
	"log/slog"
	"time"

	"github.com/ENACT/enact/internal/emissionlog"
	"github.com/ENACT/enact/internal/models"
)

// Aggregator derives totals and summaries from day partitions.
type Aggregator struct {
	store  *emissionlog.Store
	logger *slog.Logger
}

// New constructs an Aggregator over the given store.
func New(store *emissionlog.Store, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// DailyTotal returns the sum of CO2 grams recorded for a date. A date with
// no partition totals zero.
func (a *Aggregator) DailyTotal(date string) (float64, error) {
	records, err := a.store.Load(date)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, r := range records {
		total += r.CO2Grams
	}
	return total, nil
}

// DailySummary computes the rollup for one date.
func (a *Aggregator) DailySummary(date string) (models.DailySummary, error) {
	records, err := a.store.Load(date)
	if err != nil {
		return models.DailySummary{}, err
	}

	summary := models.DailySummary{Date: date, ActivityCount: len(records)}
	for _, r := range records {
		summary.EmissionsGrams += r.CO2Grams
		summary.EnergyKWh += r.EnergyKWh
	}
	summary.EmissionsGrams = round4(summary.EmissionsGrams)
	summary.EnergyKWh = round6(summary.EnergyKWh)
	return summary, nil
}

// RollingTotal sums CO2 grams over the trailing windowDays days including
// today. Days without a partition contribute zero.
func (a *Aggregator) RollingTotal(windowDays int) (float64, error) {
	var total float64
	now := time.Now()

	for i := 0; i < windowDays; i++ {
		date := now.AddDate(0, 0, -i).Format(emissionlog.DateLayout)
		daily, err := a.DailyTotal(date)
		if err != nil {
			return 0, err
		}
		total += daily
	}
	return total, nil
}

// WindowSummaries returns one summary per day for the fixed trailing window,
// oldest first. Every day appears even when it has no records, which keeps
// timeline charts dense.
func (a *Aggregator) WindowSummaries(days int) (models.PeriodSummary, error) {
	if days <= 0 {
		days = 7
	}

	now := time.Now()
	dates := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, now.AddDate(0, 0, -i).Format(emissionlog.DateLayout))
	}

	return a.summarize(dates)
}

// HistorySummaries scans every existing partition and returns the most
// recent limit dates in chronological order. A non-positive limit means all
// available dates. Partitions with unparseable filenames were already
// skipped by the store's directory scan.
func (a *Aggregator) HistorySummaries(limit int) (models.PeriodSummary, error) {
	dates, err := a.store.Dates()
	if err != nil {
		return models.PeriodSummary{}, err
	}

	if limit > 0 && limit < len(dates) {
		dates = dates[len(dates)-limit:]
	}

	return a.summarize(dates)
}

func (a *Aggregator) summarize(dates []string) (models.PeriodSummary, error) {
	period := models.PeriodSummary{
		DailySummaries: make([]models.DailySummary, 0, len(dates)),
	}

	for _, date := range dates {
		summary, err := a.DailySummary(date)
		if err != nil {
			return models.PeriodSummary{}, err
		}
		period.DailySummaries = append(period.DailySummaries, summary)
		period.TotalEmissionsGrams += summary.EmissionsGrams
		period.TotalEnergyKWh += summary.EnergyKWh
	}

	period.PeriodDays = len(period.DailySummaries)
	period.TotalEmissionsGrams = round4(period.TotalEmissionsGrams)
	period.TotalEnergyKWh = round6(period.TotalEnergyKWh)
	return period, nil
}

func round4(v float64) float64 { return roundTo(v, 10000) }
func round6(v float64) float64 { return roundTo(v, 1000000) }

func roundTo(v, scale float64) float64 {
	if v < 0 {
		return -roundTo(-v, scale)
	}
	return float64(int64(v*scale+0.5)) / scale
}
