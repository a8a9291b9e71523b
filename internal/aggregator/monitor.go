package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ENACT/enact/internal/advisor"
	"github.com/ENACT/enact/internal/models"
)

// Monitor evaluates totals against configured limits and attaches advisory
// text to any crossing. Limits are runtime-mutable; reads and writes are
// safe for concurrent use.
type Monitor struct {
	mu        sync.RWMutex
	cfg       models.ThresholdConfig
	generator advisor.Generator
	logger    *slog.Logger
}

// NewMonitor constructs a Monitor. generator may be nil, in which case every
// advisory comes from the local fallback.
func NewMonitor(cfg models.ThresholdConfig, generator advisor.Generator, logger *slog.Logger) *Monitor {
	if cfg.DailyLimitGrams <= 0 || cfg.WeeklyLimitGrams <= 0 {
		cfg = models.DefaultThresholdConfig()
	}
	return &Monitor{
		cfg:       cfg,
		generator: generator,
		logger:    logger,
	}
}

// Config returns the current limits.
func (m *Monitor) Config() models.ThresholdConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// UpdateConfig replaces the limits.
func (m *Monitor) UpdateConfig(cfg models.ThresholdConfig) models.ThresholdConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.DailyLimitGrams > 0 {
		m.cfg.DailyLimitGrams = cfg.DailyLimitGrams
	}
	if cfg.WeeklyLimitGrams > 0 {
		m.cfg.WeeklyLimitGrams = cfg.WeeklyLimitGrams
	}
	m.cfg.UpdatedAt = time.Now()
	return m.cfg
}

// Check compares totals against the limits. The daily limit takes
// precedence: once it is reached only the daily alert is evaluated. At most
// one alert is returned; nil means no threshold was crossed. The returned
// alert carries no advisory text yet.
func (m *Monitor) Check(dailyTotal, weeklyTotal float64) *models.ThresholdAlert {
	cfg := m.Config()

	if dailyTotal >= cfg.DailyLimitGrams {
		return &models.ThresholdAlert{
			Type:         models.ThresholdDaily,
			CurrentGrams: dailyTotal,
			LimitGrams:   cfg.DailyLimitGrams,
		}
	}

	if weeklyTotal >= cfg.WeeklyLimitGrams {
		return &models.ThresholdAlert{
			Type:         models.ThresholdWeekly,
			CurrentGrams: weeklyTotal,
			LimitGrams:   cfg.WeeklyLimitGrams,
		}
	}

	return nil
}

// CheckAndAdvise runs Check and, when a threshold was crossed, fills in the
// advisory. A failing or absent generator is replaced by the deterministic
// fallback, so a returned alert always carries non-empty guidance.
func (m *Monitor) CheckAndAdvise(ctx context.Context, dailyTotal, weeklyTotal float64) *models.ThresholdAlert {
	alert := m.Check(dailyTotal, weeklyTotal)
	if alert == nil {
		return nil
	}

	if m.generator != nil {
		text, model, err := m.generator.Advise(ctx, alert.CurrentGrams, alert.Type, alert.LimitGrams)
		if err == nil && text != "" {
			alert.Advisory = text
			alert.AdvisoryModel = model
			return alert
		}
		if err != nil {
			m.logger.Warn("advisory generator failed, using fallback",
				"threshold_type", alert.Type,
				"error", err.Error())
		}
	}

	alert.Advisory = advisor.Fallback(alert.CurrentGrams, alert.Type, alert.LimitGrams)
	alert.AdvisoryModel = advisor.FallbackModel
	return alert
}
