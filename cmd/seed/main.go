// Command seed fills the emission log with demo data for local dashboard
// development. It writes through the same store as the service, so seeded
// partitions are indistinguishable from tracked ones.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ENACT/enact/internal/emissionlog"
	"github.com/ENACT/enact/internal/estimator"
	"github.com/ENACT/enact/internal/models"
	"log/slog"
)

type activityProfile struct {
	activityType models.ActivityType
	minMinutes   int
	maxMinutes   int
}

var profiles = []activityProfile{
	{models.ActivityYouTube, 10, 60},
	{models.ActivityBrowsing, 5, 45},
	{models.ActivityGmail, 1, 10},
	{models.ActivityCodeExecution, 5, 30},
	{models.ActivityOTT, 20, 90},
	{models.ActivityIdle, 5, 30},
}

func main() {
	_ = godotenv.Load()

	defaultDir := os.Getenv("EMISSION_LOG_DIR")
	if defaultDir == "" {
		defaultDir = "emission_logs"
	}

	dir := flag.String("dir", defaultDir, "emission log directory")
	days := flag.Int("days", 7, "number of past days to seed, including today")
	perDay := flag.Int("per-day", 12, "activities per day")
	seedVal := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	if *days <= 0 || *perDay <= 0 {
		log.Fatal("days and per-day must be positive")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := emissionlog.NewStore(*dir, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	engine := estimator.NewEngine(randomCPU{}, nil, os.Getenv("GRID_COUNTRY_CODE"), 0, logger)
	rng := rand.New(rand.NewSource(*seedVal))

	var total int
	for d := *days - 1; d >= 0; d-- {
		day := time.Now().AddDate(0, 0, -d)
		date := day.Format(emissionlog.DateLayout)

		for i := 0; i < *perDay; i++ {
			profile := profiles[rng.Intn(len(profiles))]
			minutes := profile.minMinutes + rng.Intn(profile.maxMinutes-profile.minMinutes+1)
			duration := float64(minutes * 60)

			estimate, err := engine.Estimate(context.Background(), string(profile.activityType), duration, nil, false)
			if err != nil {
				log.Fatalf("Failed to estimate: %v", err)
			}

			record := models.EmissionRecord{
				ID:              uuid.NewString(),
				Timestamp:       day.Add(time.Duration(8+rng.Intn(12)) * time.Hour),
				ActivityType:    profile.activityType,
				DurationSeconds: duration,
				EnergyKWh:       estimate.EnergyKWh,
				CO2Grams:        estimate.CO2Grams,
				PowerWatts:      estimate.PowerWatts,
				CPULoadFactor:   estimate.CPULoadFactor,
				Method:          estimate.Method,
				Metadata:        map[string]any{"source": "seed"},
			}

			if err := store.Append(record, date); err != nil {
				log.Fatalf("Failed to append record for %s: %v", date, err)
			}
			total++
		}
	}

	fmt.Printf("Seeded %d records across %d days into %s\n", total, *days, *dir)
}

// randomCPU fakes utilization so seeded days show varied load factors.
type randomCPU struct{}

func (randomCPU) CPUPercent() (float64, error) {
	return 20 + rand.Float64()*60, nil
}
