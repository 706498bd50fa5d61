package wtk

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `SiteID,1210321,Longitude,-88.37,Latitude,40.45
Year,Month,Day,Hour,Minute,wind speed at 100m (m/s),wind direction at 100m (deg),air temperature at 100m (K),surface air pressure (Pa)
2012,1,1,0,0,7.5,182.1,278.2,98630
2012,1,1,0,5,7.8,183.4,278.1,98625
2012,1,1,0,10,8.1,184.0,278.1,98622
`

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     "test-key",
		hubHeight:  100,
		skipRows:   1,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		breaker:    gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "wtk-test"}),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_FetchSeries_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "2012", r.URL.Query().Get("names"))
		assert.Equal(t, "true", r.URL.Query().Get("utc"))
		assert.Contains(t, r.URL.Query().Get("wkt"), "POINT(")
		assert.Contains(t, r.URL.Query().Get("attributes"), "windspeed_100m")

		_, err := io.WriteString(w, sampleCSV)
		require.NoError(t, err)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	obs, err := c.FetchSeries(context.Background(), 40.45, -88.37, 2012)
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), obs[0].Timestamp)
	assert.Equal(t, 7.5, obs[0].WindSpeed)
	assert.Equal(t, 182.1, obs[0].WindDir)
	assert.Equal(t, 278.2, obs[0].Temperature)
	assert.Equal(t, 98630.0, obs[0].Pressure)
	assert.Equal(t, time.Date(2012, 1, 1, 0, 10, 0, 0, time.UTC), obs[2].Timestamp)
}

func TestClient_FetchSeries_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errors":["invalid api_key"]}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchSeries(context.Background(), 40.45, -88.37, 2012)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "invalid api_key")
}

func TestClient_FetchSeries_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchSeries(context.Background(), 40.45, -88.37, 2012)
	require.Error(t, err)
}

func TestParseSeries(t *testing.T) {
	c := testClient("")

	t.Run("timestamp regression rejected", func(t *testing.T) {
		csv := `meta
Year,Month,Day,Hour,Minute,wind speed at 100m (m/s),wind direction at 100m (deg),air temperature at 100m (K),surface air pressure (Pa)
2012,1,1,0,5,7.5,180,278,98630
2012,1,1,0,0,7.8,180,278,98630
`
		_, err := c.parseSeries(strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not after")
	})

	t.Run("negative wind speed rejected", func(t *testing.T) {
		csv := `meta
Year,Month,Day,Hour,Minute,wind speed at 100m (m/s),wind direction at 100m (deg),air temperature at 100m (K),surface air pressure (Pa)
2012,1,1,0,0,-3.0,180,278,98630
`
		_, err := c.parseSeries(strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "negative wind speed")
	})

	t.Run("blank measurement cells become zeros", func(t *testing.T) {
		// Zero temperature and pressure degrade to NaN density downstream
		// instead of failing the batch.
		csv := `meta
Year,Month,Day,Hour,Minute,wind speed at 100m (m/s),wind direction at 100m (deg),air temperature at 100m (K),surface air pressure (Pa)
2012,1,1,0,0,7.5,180,,
`
		obs, err := c.parseSeries(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, obs, 1)
		assert.Equal(t, 0.0, obs[0].Temperature)
		assert.Equal(t, 0.0, obs[0].Pressure)
	})

	t.Run("missing column reported by name", func(t *testing.T) {
		csv := `meta
Year,Month,Day,Hour,Minute,wind speed at 100m (m/s),air temperature at 100m (K),surface air pressure (Pa)
`
		_, err := c.parseSeries(strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wind direction")
	})

	t.Run("empty series rejected", func(t *testing.T) {
		csv := `meta
Year,Month,Day,Hour,Minute,wind speed at 100m (m/s),wind direction at 100m (deg),air temperature at 100m (K),surface air pressure (Pa)
`
		_, err := c.parseSeries(strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Wind Speed at 100m (m/s)", "windspeedat100mms"},
		{"air temperature at 100m (K)", "airtemperatureat100mk"},
		{"Year", "year"},
		{"surface air pressure (Pa)", "surfaceairpressurepa"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeName(tt.in))
	}
}
