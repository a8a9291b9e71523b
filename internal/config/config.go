package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	Storage    StorageConfig
	Tracker    TrackerConfig
	Estimation EstimationConfig
	Thresholds ThresholdsConfig
	CodeCarbon CodeCarbonConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// StorageConfig locates the emission log directory.
type StorageConfig struct {
	LogDir string
}

// TrackerConfig controls the background activity sampler.
type TrackerConfig struct {
	Enabled       bool
	PollInterval  time.Duration
	IdleThreshold time.Duration
}

// EstimationConfig selects the carbon intensity of the local grid.
type EstimationConfig struct {
	CountryCode string
	// GridIntensityOverride, when positive, replaces the country lookup
	// with an explicit g CO2/kWh figure.
	GridIntensityOverride float64
}

// ThresholdsConfig holds the initial emission limits.
type ThresholdsConfig struct {
	DailyLimitGrams  float64
	WeeklyLimitGrams float64
}

// CodeCarbonConfig controls the measurement-backed estimation path.
type CodeCarbonConfig struct {
	Enabled        bool
	MeasurementURL string
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultLogDir = "emission_logs"

	defaultPollInterval  = 10 * time.Second
	defaultIdleThreshold = 5 * time.Minute

	defaultCountryCode = "USA"

	defaultDailyLimitGrams  = 2.0
	defaultWeeklyLimitGrams = 10.0
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Storage: StorageConfig{
			LogDir: getEnv("EMISSION_LOG_DIR", defaultLogDir),
		},
		Tracker: TrackerConfig{
			Enabled:       true,
			PollInterval:  defaultPollInterval,
			IdleThreshold: defaultIdleThreshold,
		},
		Estimation: EstimationConfig{
			CountryCode: getEnv("GRID_COUNTRY_CODE", defaultCountryCode),
		},
		Thresholds: ThresholdsConfig{
			DailyLimitGrams:  defaultDailyLimitGrams,
			WeeklyLimitGrams: defaultWeeklyLimitGrams,
		},
		CodeCarbon: CodeCarbonConfig{
			MeasurementURL: os.Getenv("CODECARBON_MEASUREMENT_URL"),
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("TRACKER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TRACKER_ENABLED: %w", err)
		}
		cfg.Tracker.Enabled = enabled
	}

	if v := os.Getenv("TRACKER_POLL_INTERVAL_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TRACKER_POLL_INTERVAL_SECONDS: %w", err)
		}
		cfg.Tracker.PollInterval = d
	}

	if v := os.Getenv("TRACKER_IDLE_THRESHOLD_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TRACKER_IDLE_THRESHOLD_SECONDS: %w", err)
		}
		cfg.Tracker.IdleThreshold = d
	}

	if v := os.Getenv("GRID_INTENSITY_OVERRIDE"); v != "" {
		intensity, err := parsePositiveFloat(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GRID_INTENSITY_OVERRIDE: %w", err)
		}
		cfg.Estimation.GridIntensityOverride = intensity
	}

	if v := os.Getenv("DAILY_CO2_LIMIT_GRAMS"); v != "" {
		limit, err := parsePositiveFloat(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DAILY_CO2_LIMIT_GRAMS: %w", err)
		}
		cfg.Thresholds.DailyLimitGrams = limit
	}

	if v := os.Getenv("WEEKLY_CO2_LIMIT_GRAMS"); v != "" {
		limit, err := parsePositiveFloat(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WEEKLY_CO2_LIMIT_GRAMS: %w", err)
		}
		cfg.Thresholds.WeeklyLimitGrams = limit
	}

	if v := os.Getenv("CODECARBON_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CODECARBON_ENABLED: %w", err)
		}
		cfg.CodeCarbon.Enabled = enabled
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveFloat(raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("must be a positive number")
	}
	return value, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
