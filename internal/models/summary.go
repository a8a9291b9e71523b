package models

// DailySummary is the derived per-date rollup. It is recomputed from the day
// partition on demand and never persisted.
type DailySummary struct {
	Date           string  `json:"date"`
	EmissionsGrams float64 `json:"emissions_grams"`
	EnergyKWh      float64 `json:"energy_kwh"`
	ActivityCount  int     `json:"activity_count"`
}

// PeriodSummary aggregates a sequence of daily summaries, oldest first.
type PeriodSummary struct {
	PeriodDays          int            `json:"period_days"`
	DailySummaries      []DailySummary `json:"daily_summaries"`
	TotalEmissionsGrams float64        `json:"total_emissions_grams"`
	TotalEnergyKWh      float64        `json:"total_energy_kwh"`
}
