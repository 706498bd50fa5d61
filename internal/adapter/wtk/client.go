package wtk

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/gustline/windsite/internal/config"
	"github.com/gustline/windsite/internal/domain"
)

// Client fetches hourly or sub-hourly meteorological series from the NREL
// WIND Toolkit CSV download API. Acquisition failures are fatal to the
// caller; the client performs no retries. A circuit breaker guards the
// endpoint against repeated on-demand fetches in serve mode.
type Client struct {
	baseURL    string
	apiKey     string
	email      string
	hubHeight  int
	skipRows   int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a WIND Toolkit client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wtk",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:    cfg.WTKBaseURL,
		apiKey:     cfg.WTKAPIKey,
		email:      cfg.WTKEmail,
		hubHeight:  cfg.WTKHubHeight,
		skipRows:   cfg.WTKSkipRows,
		httpClient: &http.Client{Timeout: cfg.WTKTimeout},
		breaker:    cb,
		logger:     logger,
	}
}

// FetchSeries downloads one year of observations for the given point.
func (c *Client) FetchSeries(ctx context.Context, lat, lon float64, year int) ([]domain.Observation, error) {
	params := url.Values{
		"api_key":    {c.apiKey},
		"wkt":        {fmt.Sprintf("POINT(%f %f)", lon, lat)},
		"names":      {strconv.Itoa(year)},
		"utc":        {"true"},
		"attributes": {c.attributes()},
	}
	if c.email != "" {
		params.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("wind toolkit API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch series for %d: %w", year, err)
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()

	observations, err := c.parseSeries(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse series for %d: %w", year, err)
	}

	c.logger.Info("meteorological series fetched",
		"year", year,
		"records", len(observations),
		"duration", time.Since(start),
	)
	return observations, nil
}

func (c *Client) attributes() string {
	h := c.hubHeight
	return strings.Join([]string{
		fmt.Sprintf("windspeed_%dm", h),
		fmt.Sprintf("winddirection_%dm", h),
		fmt.Sprintf("temperature_%dm", h),
		"pressure_0m",
	}, ",")
}

// parseSeries reads the CSV payload: a fixed number of metadata rows, a
// header row, then one record per sample interval. Header names vary across
// dataset vintages, so they are normalized (lowercased, non-alphanumerics
// stripped) before column lookup.
func (c *Client) parseSeries(r io.Reader) ([]domain.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	for i := 0; i < c.skipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("skip metadata row %d: %w", i+1, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var observations []domain.Observation
	var prev time.Time
	for line := c.skipRows + 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row at line %d: %w", line, err)
		}

		obs, err := cols.parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("row at line %d: %w", line, err)
		}
		if !prev.IsZero() && !obs.Timestamp.After(prev) {
			return nil, fmt.Errorf("row at line %d: timestamp %s not after %s", line, obs.Timestamp, prev)
		}
		prev = obs.Timestamp
		observations = append(observations, obs)
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("series is empty")
	}
	return observations, nil
}

// columns maps required fields to CSV column indices.
type columns struct {
	year, month, day, hour, minute int
	speed, direction               int
	temperature, pressure          int
}

// normalizeName lowercases a header cell and strips everything outside
// [a-z0-9], so "Wind Speed at 100m (m/s)" becomes "windspeedat100mms".
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func resolveColumns(header []string) (*columns, error) {
	find := func(exact string, substr string) int {
		for i, h := range header {
			n := normalizeName(h)
			if exact != "" && n == exact {
				return i
			}
			if substr != "" && strings.Contains(n, substr) {
				return i
			}
		}
		return -1
	}

	cols := &columns{
		year:        find("year", ""),
		month:       find("month", ""),
		day:         find("day", ""),
		hour:        find("hour", ""),
		minute:      find("minute", ""),
		speed:       find("", "windspeed"),
		direction:   find("", "winddirection"),
		temperature: find("", "temperature"),
		pressure:    find("", "pressure"),
	}

	missing := map[string]int{
		"year": cols.year, "month": cols.month, "day": cols.day,
		"hour": cols.hour, "minute": cols.minute,
		"wind speed": cols.speed, "wind direction": cols.direction,
		"temperature": cols.temperature, "pressure": cols.pressure,
	}
	for name, idx := range missing {
		if idx < 0 {
			return nil, fmt.Errorf("header is missing a %s column", name)
		}
	}
	return cols, nil
}

func (c *columns) parseRow(record []string) (domain.Observation, error) {
	intAt := func(idx int, name string) (int, error) {
		v, err := strconv.Atoi(strings.TrimSpace(record[idx]))
		if err != nil {
			return 0, fmt.Errorf("bad %s value %q", name, record[idx])
		}
		return v, nil
	}
	// Blank measurement cells become NaN-carrying gaps downstream rather
	// than parse failures.
	floatAt := func(idx int, name string) (float64, error) {
		s := strings.TrimSpace(record[idx])
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("bad %s value %q", name, record[idx])
		}
		return v, nil
	}

	for _, idx := range []int{c.year, c.month, c.day, c.hour, c.minute, c.speed, c.direction, c.temperature, c.pressure} {
		if idx >= len(record) {
			return domain.Observation{}, fmt.Errorf("row has %d fields, need at least %d", len(record), idx+1)
		}
	}

	year, err := intAt(c.year, "year")
	if err != nil {
		return domain.Observation{}, err
	}
	month, err := intAt(c.month, "month")
	if err != nil {
		return domain.Observation{}, err
	}
	day, err := intAt(c.day, "day")
	if err != nil {
		return domain.Observation{}, err
	}
	hour, err := intAt(c.hour, "hour")
	if err != nil {
		return domain.Observation{}, err
	}
	minute, err := intAt(c.minute, "minute")
	if err != nil {
		return domain.Observation{}, err
	}

	speed, err := floatAt(c.speed, "wind speed")
	if err != nil {
		return domain.Observation{}, err
	}
	if speed < 0 {
		return domain.Observation{}, fmt.Errorf("negative wind speed %.2f", speed)
	}
	direction, err := floatAt(c.direction, "wind direction")
	if err != nil {
		return domain.Observation{}, err
	}
	temperature, err := floatAt(c.temperature, "temperature")
	if err != nil {
		return domain.Observation{}, err
	}
	pressure, err := floatAt(c.pressure, "pressure")
	if err != nil {
		return domain.Observation{}, err
	}

	return domain.Observation{
		Timestamp:   time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC),
		WindSpeed:   speed,
		WindDir:     direction,
		Temperature: temperature,
		Pressure:    pressure,
	}, nil
}
