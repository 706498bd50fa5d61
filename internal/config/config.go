package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables
// (optionally seeded from a local .env file).
type Config struct {
	// Candidate site.
	SiteName  string
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`

	// Meteorological series.
	DataYear       int `validate:"gte=2007"`
	SamplesPerHour int `validate:"gte=1,lte=60"`
	WTKBaseURL     string
	WTKAPIKey      string
	WTKEmail       string
	WTKHubHeight   int `validate:"gt=0"`
	WTKSkipRows    int `validate:"gte=0"`
	WTKTimeout     time.Duration

	// Turbine power curve.
	CurveArchiveURL string
	CurveEntry      string
	CurveSkipLines  int `validate:"gte=0"`
	CurveBins       int `validate:"gt=0"`
	CurveTimeout    time.Duration
	TurbineName     string
	OutOfRange      string `validate:"oneof=zero clamp"`

	// Optional results publishing.
	KafkaBrokers      []string
	KafkaResultsTopic string
	KafkaEnabled      bool

	// Optional site labeling via reverse geocoding.
	GeocoderAPIKey  string
	GeocoderEnabled bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	lat, err := requireFloat("SITE_LATITUDE")
	if err != nil {
		return nil, err
	}
	lon, err := requireFloat("SITE_LONGITUDE")
	if err != nil {
		return nil, err
	}

	year, err := parseIntEnv("DATA_YEAR", 2019)
	if err != nil {
		return nil, err
	}
	samplesPerHour, err := parseIntEnv("SAMPLES_PER_HOUR", 12)
	if err != nil {
		return nil, err
	}
	hubHeight, err := parseIntEnv("WTK_HUB_HEIGHT", 100)
	if err != nil {
		return nil, err
	}
	skipRows, err := parseIntEnv("WTK_SKIP_ROWS", 1)
	if err != nil {
		return nil, err
	}
	wtkTimeout, err := parseDurationEnv("WTK_TIMEOUT", time.Minute)
	if err != nil {
		return nil, err
	}
	curveSkip, err := parseIntEnv("POWER_CURVE_SKIP_LINES", 4)
	if err != nil {
		return nil, err
	}
	curveBins, err := parseIntEnv("POWER_CURVE_BINS", 30)
	if err != nil {
		return nil, err
	}
	curveTimeout, err := parseDurationEnv("POWER_CURVE_TIMEOUT", time.Minute)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	geocoderKey := os.Getenv("GEOCODER_API_KEY")
	geocoderEnabled := geocoderKey != ""
	if v := os.Getenv("GEOCODER_ENABLED"); v != "" {
		geocoderEnabled = v == "true"
	}

	cfg := &Config{
		SiteName:  os.Getenv("SITE_NAME"),
		Latitude:  lat,
		Longitude: lon,

		DataYear:       year,
		SamplesPerHour: samplesPerHour,
		WTKBaseURL:     envOrDefault("WTK_BASE_URL", "https://developer.nrel.gov/api/wind-toolkit/v2/wind/wtk-download.csv"),
		WTKAPIKey:      os.Getenv("WTK_API_KEY"),
		WTKEmail:       os.Getenv("WTK_EMAIL"),
		WTKHubHeight:   hubHeight,
		WTKSkipRows:    skipRows,
		WTKTimeout:     wtkTimeout,

		CurveArchiveURL: os.Getenv("POWER_CURVE_ARCHIVE_URL"),
		CurveEntry:      envOrDefault("POWER_CURVE_ENTRY", "Vestas/V80_2.0MW.pow"),
		CurveSkipLines:  curveSkip,
		CurveBins:       curveBins,
		CurveTimeout:    curveTimeout,
		TurbineName:     envOrDefault("TURBINE_NAME", "V80_2.0MW"),
		OutOfRange:      envOrDefault("OUT_OF_RANGE_POLICY", "zero"),

		KafkaBrokers:      kafkaBrokers,
		KafkaResultsTopic: envOrDefault("KAFKA_RESULTS_TOPIC", "wind-site-assessments"),
		KafkaEnabled:      kafkaEnabled,

		GeocoderAPIKey:  geocoderKey,
		GeocoderEnabled: geocoderEnabled,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.WTKAPIKey == "" {
		return nil, errors.New("WTK_API_KEY is required")
	}
	if cfg.CurveArchiveURL == "" {
		return nil, errors.New("POWER_CURVE_ARCHIVE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.GeocoderEnabled && cfg.GeocoderAPIKey == "" {
		return nil, errors.New("GEOCODER_ENABLED is true but GEOCODER_API_KEY is not set")
	}

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return nil, fmt.Errorf("invalid configuration: field %s failed %q check", f.StructField(), f.Tag())
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireFloat(key string) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseIntEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
