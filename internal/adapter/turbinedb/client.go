package turbinedb

import (
	"archive/zip"
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gustline/windsite/internal/config"
	"github.com/gustline/windsite/internal/domain"
)

// Client downloads a turbine power-curve archive and extracts one model's
// published curve. The archive is a zip of per-turbine text files; a curve
// file starts with a fixed number of metadata lines followed by one power
// value per integer wind-speed bin, the first bin centered at 0.5 m/s.
type Client struct {
	archiveURL string
	entry      string
	skipLines  int
	bins       int
	turbine    string
	policy     domain.OutOfRangePolicy
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a power-curve archive client from configuration.
func NewClient(cfg *config.Config, policy domain.OutOfRangePolicy, logger *slog.Logger) *Client {
	return &Client{
		archiveURL: cfg.CurveArchiveURL,
		entry:      cfg.CurveEntry,
		skipLines:  cfg.CurveSkipLines,
		bins:       cfg.CurveBins,
		turbine:    cfg.TurbineName,
		policy:     policy,
		httpClient: &http.Client{Timeout: cfg.CurveTimeout},
		logger:     logger,
	}
}

// FetchCurve downloads the archive and builds the configured turbine's power
// curve. The downloaded archive lands in a temporary file that is removed
// before returning, on success and failure alike.
func (c *Client) FetchCurve(ctx context.Context) (*domain.PowerCurve, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.archiveURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch power curve archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("power curve archive error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	tmp, err := os.CreateTemp("", "turbinedb-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create temp archive: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download archive: %w", err)
	}

	curve, err := c.extractCurve(tmp, size)
	if err != nil {
		return nil, err
	}

	c.logger.Info("power curve loaded",
		"turbine", c.turbine,
		"entry", c.entry,
		"samples", len(curve.Points),
		"rated_kw", curve.RatedPowerKW(),
		"duration", time.Since(start),
	)
	return curve, nil
}

func (c *Client) extractCurve(archive io.ReaderAt, size int64) (*domain.PowerCurve, error) {
	zr, err := zip.NewReader(archive, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var file *zip.File
	for _, f := range zr.File {
		if f.Name == c.entry {
			file = f
			break
		}
	}
	if file == nil {
		return nil, fmt.Errorf("archive has no entry %q", c.entry)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %q: %w", c.entry, err)
	}
	defer rc.Close()

	points, err := c.parseCurve(rc)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", c.entry, err)
	}
	return domain.NewPowerCurve(c.turbine, points, c.policy)
}

// parseCurve skips the metadata lines and reads one power value per bin.
// Lines may carry either a bare power value or "speed power" pairs; the last
// field on the line is taken as the power in kW.
func (c *Client) parseCurve(r io.Reader) ([]domain.PowerCurvePoint, error) {
	scanner := bufio.NewScanner(r)

	for i := 0; i < c.skipLines; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("short file: %d metadata lines expected", c.skipLines)
		}
	}

	points := make([]domain.PowerCurvePoint, 0, c.bins)
	for i := 0; i < c.bins; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("short file: %d bins expected, got %d", c.bins, i)
		}
		fields := strings.Fields(strings.ReplaceAll(scanner.Text(), ",", " "))
		if len(fields) == 0 {
			return nil, fmt.Errorf("blank line at bin %d", i)
		}
		power, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad power value %q at bin %d", fields[len(fields)-1], i)
		}
		points = append(points, domain.PowerCurvePoint{
			SpeedMS: 0.5 + float64(i),
			PowerKW: power,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read curve: %w", err)
	}
	return points, nil
}
