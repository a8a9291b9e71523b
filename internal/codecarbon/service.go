// Package codecarbon provides the optional enhanced estimation provider.
// When a CodeCarbon measurement service is reachable its figures are
// preferred; otherwise estimates come from the CodeCarbon benchmark table.
// Callers must treat any error from this package as "use the standard path".
package codecarbon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ENACT/enact/internal/models"
)

// Config controls the provider.
type Config struct {
	// Enabled gates the provider entirely. When false, Estimate always
	// returns an error and the engine uses its standard path.
	Enabled bool

	// MeasurementURL points at a CodeCarbon measurement sidecar. Empty means
	// benchmark-table estimates only.
	MeasurementURL string

	// Timeout bounds the measurement call.
	Timeout time.Duration
}

// DefaultConfig returns a disabled provider with a short measurement timeout.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Timeout: 3 * time.Second,
	}
}

// Service implements the enhanced estimation provider.
type Service struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// benchmark holds per-activity CodeCarbon benchmark figures.
type benchmark struct {
	baseWatts float64
	cpuFactor float64
}

var benchmarks = map[models.ActivityType]benchmark{
	models.ActivityYouTube:       {baseWatts: 12, cpuFactor: 0.3},
	models.ActivityOTT:           {baseWatts: 15, cpuFactor: 0.4},
	models.ActivityBrowsing:      {baseWatts: 8, cpuFactor: 0.2},
	models.ActivityGmail:         {baseWatts: 5, cpuFactor: 0.1},
	models.ActivityCodeExecution: {baseWatts: 40, cpuFactor: 1.0},
	models.ActivityIdle:          {baseWatts: 3, cpuFactor: 0.05},
}

var defaultBenchmark = benchmark{baseWatts: 10, cpuFactor: 0.5}

// Estimate produces an emission estimate for the given activity. A live
// measurement (when configured and reachable) is tagged codecarbon_enhanced;
// the local benchmark table is tagged codecarbon_benchmark.
func (s *Service) Estimate(ctx context.Context, activityType models.ActivityType, durationSeconds, cpuPercent float64) (*models.EstimateResult, error) {
	if s == nil || !s.cfg.Enabled {
		return nil, fmt.Errorf("codecarbon provider disabled")
	}
	if durationSeconds < 0 {
		return nil, fmt.Errorf("negative duration: %v", durationSeconds)
	}

	if s.cfg.MeasurementURL != "" {
		res, err := s.measure(ctx, activityType, durationSeconds, cpuPercent)
		if err == nil {
			return res, nil
		}
		s.logger.Debug("codecarbon measurement unavailable, using benchmarks",
			"activity_type", activityType,
			"error", err.Error())
	}

	return s.estimateFromBenchmarks(activityType, durationSeconds, cpuPercent), nil
}

// measure queries the external measurement service.
func (s *Service) measure(ctx context.Context, activityType models.ActivityType, durationSeconds, cpuPercent float64) (*models.EstimateResult, error) {
	payload, err := json.Marshal(map[string]any{
		"activity_type":    activityType,
		"duration_seconds": durationSeconds,
		"cpu_percent":      cpuPercent,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal measurement request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.MeasurementURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build measurement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("measurement call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("measurement service returned status %d", resp.StatusCode)
	}

	var body struct {
		EnergyKWh  float64 `json:"energy_kwh"`
		CO2Grams   float64 `json:"co2_grams"`
		PowerWatts float64 `json:"power_watts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode measurement response: %w", err)
	}
	if body.EnergyKWh <= 0 || body.CO2Grams < 0 {
		return nil, fmt.Errorf("measurement response out of range")
	}

	return &models.EstimateResult{
		EnergyKWh:     round6(body.EnergyKWh),
		CO2Grams:      round4(body.CO2Grams),
		PowerWatts:    round2(body.PowerWatts),
		CPULoadFactor: loadFactor(cpuPercent),
		Method:        models.MethodCodeCarbonEnhanced,
	}, nil
}

// estimateFromBenchmarks computes figures from published CodeCarbon
// benchmark wattages: base draw plus a CPU-proportional component.
func (s *Service) estimateFromBenchmarks(activityType models.ActivityType, durationSeconds, cpuPercent float64) *models.EstimateResult {
	b, ok := benchmarks[models.ActivityType(strings.ToLower(string(activityType)))]
	if !ok {
		b = defaultBenchmark
	}

	powerWatts := b.baseWatts + (cpuPercent/100)*b.cpuFactor*20
	energyKWh := powerWatts * (durationSeconds / 3600) / 1000
	co2Grams := energyKWh * DefaultGridIntensity

	return &models.EstimateResult{
		EnergyKWh:     round6(energyKWh),
		CO2Grams:      round4(co2Grams),
		PowerWatts:    round2(powerWatts),
		CPULoadFactor: loadFactor(cpuPercent),
		Method:        models.MethodCodeCarbonBenchmark,
	}
}

func loadFactor(cpuPercent float64) float64 {
	f := cpuPercent / 50
	if f < 0.5 {
		f = 0.5
	}
	if f > 2.0 {
		f = 2.0
	}
	return round2(f)
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
