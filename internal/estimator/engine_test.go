package estimator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/ENACT/enact/internal/models"
)

type fixedCPU struct {
	percent float64
	err     error
}

func (f fixedCPU) CPUPercent() (float64, error) {
	return f.percent, f.err
}

type fakeProvider struct {
	result *models.EstimateResult
	err    error
	calls  int
}

func (p *fakeProvider) Estimate(ctx context.Context, activityType models.ActivityType, durationSeconds, cpuPercent float64) (*models.EstimateResult, error) {
	p.calls++
	return p.result, p.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEngine(cpu CPUReader, provider EnhancedProvider) *Engine {
	return NewEngine(cpu, provider, "USA", 0, testLogger())
}

func TestEstimate_YouTubeBenchmark(t *testing.T) {
	engine := newTestEngine(fixedCPU{percent: 50}, nil)

	res, err := engine.Estimate(context.Background(), "youtube", 600, nil, false)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	// 15 W * (600/3600) h / 1000 = 0.0025 kWh; * 475 = 1.1875 g.
	if res.EnergyKWh != 0.0025 {
		t.Errorf("expected 0.0025 kWh, got %v", res.EnergyKWh)
	}
	if res.CO2Grams != 1.1875 {
		t.Errorf("expected 1.1875 g, got %v", res.CO2Grams)
	}
	if res.PowerWatts != 15 {
		t.Errorf("expected 15 W, got %v", res.PowerWatts)
	}
	if res.CPULoadFactor != 1.0 {
		t.Errorf("expected load factor 1.0, got %v", res.CPULoadFactor)
	}
	if res.Method != models.MethodStandardBenchmark {
		t.Errorf("expected standard_benchmark, got %s", res.Method)
	}
}

func TestEstimate_UnknownActivityDefaults(t *testing.T) {
	engine := newTestEngine(fixedCPU{percent: 50}, nil)

	res, err := engine.Estimate(context.Background(), "VR-Gaming", 3600, nil, false)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if res.PowerWatts != 10 {
		t.Errorf("expected default 10 W for unknown activity, got %v", res.PowerWatts)
	}
}

func TestEstimate_CaseInsensitiveActivity(t *testing.T) {
	engine := newTestEngine(fixedCPU{percent: 50}, nil)

	res, err := engine.Estimate(context.Background(), "  YouTube ", 600, nil, false)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if res.PowerWatts != 15 {
		t.Errorf("expected 15 W, got %v", res.PowerWatts)
	}
}

func TestEstimate_CPULoadClamping(t *testing.T) {
	tests := []struct {
		name       string
		cpu        fixedCPU
		wantFactor float64
	}{
		{"low load clamps to 0.5", fixedCPU{percent: 5}, 0.5},
		{"mid load maps linearly", fixedCPU{percent: 75}, 1.5},
		{"high load clamps to 2.0", fixedCPU{percent: 100}, 2.0},
		{"read failure defaults to 1.0", fixedCPU{err: errors.New("no procfs")}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(tt.cpu, nil)
			res, err := engine.Estimate(context.Background(), "browsing", 60, nil, false)
			if err != nil {
				t.Fatalf("Estimate returned error: %v", err)
			}
			if res.CPULoadFactor != tt.wantFactor {
				t.Errorf("expected factor %v, got %v", tt.wantFactor, res.CPULoadFactor)
			}
		})
	}
}

func TestEstimate_MetadataAdjustments(t *testing.T) {
	engine := newTestEngine(fixedCPU{percent: 50}, nil)

	tests := []struct {
		name     string
		metadata map[string]any
		factor   float64
	}{
		{"no metadata", nil, 1.0},
		{"high quality", map[string]any{"quality": "high"}, 1.3},
		{"low quality", map[string]any{"quality": "low"}, 0.7},
		{"mobile device", map[string]any{"device_type": "mobile"}, 0.5},
		{"server device", map[string]any{"device_type": "server"}, 1.5},
		{"composed", map[string]any{"quality": "high", "device_type": "mobile"}, 0.65},
		{"non-string values ignored", map[string]any{"quality": 3, "device_type": true}, 1.0},
	}

	base, err := engine.Estimate(context.Background(), "youtube", 600, nil, false)
	if err != nil {
		t.Fatalf("baseline estimate failed: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Estimate(context.Background(), "youtube", 600, tt.metadata, false)
			if err != nil {
				t.Fatalf("Estimate returned error: %v", err)
			}

			wantCO2 := round4(base.CO2Grams * tt.factor)
			if res.CO2Grams != wantCO2 {
				t.Errorf("expected %v g, got %v", wantCO2, res.CO2Grams)
			}

			// The co2 = energy * intensity invariant must survive adjustment.
			derived := round4(res.EnergyKWh * engine.GridIntensity())
			if diff := res.CO2Grams - derived; diff > 0.0002 || diff < -0.0002 {
				t.Errorf("co2 %v drifted from energy*intensity %v", res.CO2Grams, derived)
			}
		})
	}
}

func TestEstimate_NonNegative(t *testing.T) {
	engine := newTestEngine(fixedCPU{percent: 50}, nil)

	activities := []string{"youtube", "ott", "browsing", "gmail", "code_execution", "idle", "streaming", "email", "coding", "unknown"}
	durations := []float64{0, 1, 10, 600, 86400}

	for _, activity := range activities {
		for _, dur := range durations {
			res, err := engine.Estimate(context.Background(), activity, dur, nil, false)
			if err != nil {
				t.Fatalf("Estimate(%s, %v) returned error: %v", activity, dur, err)
			}
			if res.EnergyKWh < 0 || res.CO2Grams < 0 || res.PowerWatts < 0 {
				t.Errorf("negative figures for %s/%v: %+v", activity, dur, res)
			}
		}
	}
}

func TestEstimate_InvalidDuration(t *testing.T) {
	engine := newTestEngine(fixedCPU{percent: 50}, nil)

	if _, err := engine.Estimate(context.Background(), "youtube", -1, nil, false); err == nil {
		t.Fatal("expected error for negative duration")
	}

	var estErr *EstimationError
	_, err := engine.Estimate(context.Background(), "youtube", -1, nil, false)
	if !errors.As(err, &estErr) {
		t.Errorf("expected *EstimationError, got %T", err)
	}
}

func TestEstimate_EnhancedProviderPreferred(t *testing.T) {
	provider := &fakeProvider{
		result: &models.EstimateResult{
			EnergyKWh:     0.01,
			CO2Grams:      4.75,
			PowerWatts:    36,
			CPULoadFactor: 1.0,
			Method:        models.MethodCodeCarbonEnhanced,
		},
	}
	engine := newTestEngine(fixedCPU{percent: 50}, provider)

	res, err := engine.Estimate(context.Background(), "code_execution", 60, nil, true)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if res.Method != models.MethodCodeCarbonEnhanced {
		t.Errorf("expected provider result, got method %s", res.Method)
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}
}

func TestEstimate_EnhancedProviderOnlyForCodeExecution(t *testing.T) {
	provider := &fakeProvider{result: &models.EstimateResult{Method: models.MethodCodeCarbonEnhanced}}
	engine := newTestEngine(fixedCPU{percent: 50}, provider)

	res, err := engine.Estimate(context.Background(), "youtube", 60, nil, true)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if res.Method != models.MethodStandardBenchmark {
		t.Errorf("expected standard path for non-code activity, got %s", res.Method)
	}
	if provider.calls != 0 {
		t.Errorf("provider should not be consulted, got %d calls", provider.calls)
	}
}

func TestEstimate_ProviderFailureFallsBackSilently(t *testing.T) {
	provider := &fakeProvider{err: errors.New("sidecar unreachable")}
	engine := newTestEngine(fixedCPU{percent: 50}, provider)

	res, err := engine.Estimate(context.Background(), "code_execution", 600, nil, true)
	if err != nil {
		t.Fatalf("fallback must not surface provider failure: %v", err)
	}
	if res.Method != models.MethodStandardBenchmark {
		t.Errorf("expected standard_benchmark fallback, got %s", res.Method)
	}
	// 50 W * (600/3600) / 1000 * 475
	if res.CO2Grams != 3.9583 {
		t.Errorf("expected 3.9583 g, got %v", res.CO2Grams)
	}
}

func TestGridIntensityOverride(t *testing.T) {
	engine := NewEngine(fixedCPU{percent: 50}, nil, "USA", 100, testLogger())

	res, err := engine.Estimate(context.Background(), "youtube", 3600, nil, false)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	// 15 W over an hour = 0.015 kWh; * 100 = 1.5 g.
	if res.CO2Grams != 1.5 {
		t.Errorf("expected 1.5 g with overridden intensity, got %v", res.CO2Grams)
	}
}
