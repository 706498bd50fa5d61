package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey     = "nrel-test-key"
	testArchiveURL = "https://example.com/power-curves.zip"
)

// setRequired sets the minimum environment for Load to succeed.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SITE_LATITUDE", "40.45")
	t.Setenv("SITE_LONGITUDE", "-88.37")
	t.Setenv("WTK_API_KEY", testAPIKey)
	t.Setenv("POWER_CURVE_ARCHIVE_URL", testArchiveURL)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 40.45, cfg.Latitude)
	assert.Equal(t, -88.37, cfg.Longitude)
	assert.Equal(t, 2019, cfg.DataYear)
	assert.Equal(t, 12, cfg.SamplesPerHour)
	assert.Equal(t, "https://developer.nrel.gov/api/wind-toolkit/v2/wind/wtk-download.csv", cfg.WTKBaseURL)
	assert.Equal(t, 100, cfg.WTKHubHeight)
	assert.Equal(t, 1, cfg.WTKSkipRows)
	assert.Equal(t, time.Minute, cfg.WTKTimeout)
	assert.Equal(t, "Vestas/V80_2.0MW.pow", cfg.CurveEntry)
	assert.Equal(t, 4, cfg.CurveSkipLines)
	assert.Equal(t, 30, cfg.CurveBins)
	assert.Equal(t, "zero", cfg.OutOfRange)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "wind-site-assessments", cfg.KafkaResultsTopic)
	assert.False(t, cfg.GeocoderEnabled)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("SITE_NAME", "Pilot Hill")
	t.Setenv("DATA_YEAR", "2012")
	t.Setenv("SAMPLES_PER_HOUR", "6")
	t.Setenv("WTK_HUB_HEIGHT", "80")
	t.Setenv("WTK_TIMEOUT", "90s")
	t.Setenv("POWER_CURVE_ENTRY", "GE/1.5sle.pow")
	t.Setenv("POWER_CURVE_SKIP_LINES", "2")
	t.Setenv("POWER_CURVE_BINS", "25")
	t.Setenv("OUT_OF_RANGE_POLICY", "clamp")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_RESULTS_TOPIC", "assessments")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Pilot Hill", cfg.SiteName)
	assert.Equal(t, 2012, cfg.DataYear)
	assert.Equal(t, 6, cfg.SamplesPerHour)
	assert.Equal(t, 80, cfg.WTKHubHeight)
	assert.Equal(t, 90*time.Second, cfg.WTKTimeout)
	assert.Equal(t, "GE/1.5sle.pow", cfg.CurveEntry)
	assert.Equal(t, 2, cfg.CurveSkipLines)
	assert.Equal(t, 25, cfg.CurveBins)
	assert.Equal(t, "clamp", cfg.OutOfRange)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "assessments", cfg.KafkaResultsTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_MissingLatitude(t *testing.T) {
	t.Setenv("SITE_LONGITUDE", "-88.37")
	t.Setenv("WTK_API_KEY", testAPIKey)
	t.Setenv("POWER_CURVE_ARCHIVE_URL", testArchiveURL)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SITE_LATITUDE")
}

func TestLoad_LatitudeOutOfRange(t *testing.T) {
	setRequired(t)
	t.Setenv("SITE_LATITUDE", "95.0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Latitude")
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("SITE_LATITUDE", "40.45")
	t.Setenv("SITE_LONGITUDE", "-88.37")
	t.Setenv("POWER_CURVE_ARCHIVE_URL", testArchiveURL)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WTK_API_KEY")
}

func TestLoad_MissingArchiveURL(t *testing.T) {
	t.Setenv("SITE_LATITUDE", "40.45")
	t.Setenv("SITE_LONGITUDE", "-88.37")
	t.Setenv("WTK_API_KEY", testAPIKey)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POWER_CURVE_ARCHIVE_URL")
}

func TestLoad_InvalidPolicy(t *testing.T) {
	setRequired(t)
	t.Setenv("OUT_OF_RANGE_POLICY", "extrapolate")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OutOfRange")
}

func TestLoad_InvalidTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("WTK_TIMEOUT", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WTK_TIMEOUT")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_GeocoderKeyImpliesEnabled(t *testing.T) {
	setRequired(t)
	t.Setenv("GEOCODER_API_KEY", "maps-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.GeocoderEnabled)
}

func TestLoad_GeocoderExplicitlyDisabled(t *testing.T) {
	setRequired(t)
	t.Setenv("GEOCODER_API_KEY", "maps-key")
	t.Setenv("GEOCODER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.GeocoderEnabled)
}
