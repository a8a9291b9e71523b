package codecarbon

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ENACT/enact/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestGridIntensity(t *testing.T) {
	tests := []struct {
		country string
		want    float64
	}{
		{"USA", 475},
		{"fra", 58},
		{" GBR ", 233},
		{"ZZZ", DefaultGridIntensity},
		{"", DefaultGridIntensity},
	}

	for _, tt := range tests {
		if got := GridIntensity(tt.country); got != tt.want {
			t.Errorf("GridIntensity(%q) = %v, want %v", tt.country, got, tt.want)
		}
	}
}

func TestEstimate_Disabled(t *testing.T) {
	svc := NewService(DefaultConfig(), testLogger())

	if _, err := svc.Estimate(context.Background(), models.ActivityCodeExecution, 60, 50); err == nil {
		t.Error("disabled provider should return an error")
	}
}

func TestEstimate_Benchmarks(t *testing.T) {
	svc := NewService(Config{Enabled: true}, testLogger())

	res, err := svc.Estimate(context.Background(), models.ActivityCodeExecution, 3600, 50)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	// code_execution: 40 W base + 0.5*1.0*20 = 50 W over one hour.
	if res.PowerWatts != 50 {
		t.Errorf("expected 50 W, got %v", res.PowerWatts)
	}
	if res.EnergyKWh != 0.05 {
		t.Errorf("expected 0.05 kWh, got %v", res.EnergyKWh)
	}
	if res.CO2Grams != 23.75 {
		t.Errorf("expected 23.75 g, got %v", res.CO2Grams)
	}
	if res.Method != models.MethodCodeCarbonBenchmark {
		t.Errorf("expected benchmark method, got %s", res.Method)
	}
}

func TestEstimate_UnknownActivityUsesDefaultBenchmark(t *testing.T) {
	svc := NewService(Config{Enabled: true}, testLogger())

	res, err := svc.Estimate(context.Background(), models.ActivityType("holograms"), 3600, 0)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if res.PowerWatts != 10 {
		t.Errorf("expected default 10 W, got %v", res.PowerWatts)
	}
}

func TestEstimate_NegativeDuration(t *testing.T) {
	svc := NewService(Config{Enabled: true}, testLogger())
	if _, err := svc.Estimate(context.Background(), models.ActivityIdle, -1, 50); err == nil {
		t.Error("expected error for negative duration")
	}
}

func TestEstimate_MeasurementService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"energy_kwh":0.01,"co2_grams":4.75,"power_watts":36}`))
	}))
	defer server.Close()

	svc := NewService(Config{Enabled: true, MeasurementURL: server.URL}, testLogger())

	res, err := svc.Estimate(context.Background(), models.ActivityCodeExecution, 60, 80)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if res.Method != models.MethodCodeCarbonEnhanced {
		t.Errorf("expected enhanced method, got %s", res.Method)
	}
	if res.EnergyKWh != 0.01 || res.CO2Grams != 4.75 {
		t.Errorf("unexpected figures: %+v", res)
	}
	if res.CPULoadFactor != 1.6 {
		t.Errorf("expected load factor 1.6 for 80%% cpu, got %v", res.CPULoadFactor)
	}
}

func TestEstimate_MeasurementFailureFallsBackToBenchmarks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(Config{Enabled: true, MeasurementURL: server.URL}, testLogger())

	res, err := svc.Estimate(context.Background(), models.ActivityCodeExecution, 60, 50)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if res.Method != models.MethodCodeCarbonBenchmark {
		t.Errorf("expected benchmark fallback, got %s", res.Method)
	}
}

func TestLoadFactorClamping(t *testing.T) {
	tests := []struct {
		cpu  float64
		want float64
	}{
		{0, 0.5},
		{10, 0.5},
		{25, 0.5},
		{50, 1.0},
		{75, 1.5},
		{100, 2.0},
		{400, 2.0},
	}

	for _, tt := range tests {
		if got := loadFactor(tt.cpu); got != tt.want {
			t.Errorf("loadFactor(%v) = %v, want %v", tt.cpu, got, tt.want)
		}
	}
}
