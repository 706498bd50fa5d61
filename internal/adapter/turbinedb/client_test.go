package turbinedb

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustline/windsite/internal/domain"
)

// curveFileContents renders a curve entry: four metadata lines, then one
// power value per bin.
func curveFileContents(powers []float64) string {
	var b strings.Builder
	b.WriteString("V80 2.0MW\n")
	b.WriteString("hub height 100 m\n")
	b.WriteString("rotor diameter 80 m\n")
	b.WriteString("power in kW per 1 m/s bin from 0.5 m/s\n")
	for _, p := range powers {
		fmt.Fprintf(&b, "%.1f\n", p)
	}
	return b.String()
}

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, contents)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testClient(archiveURL string, bins int) *Client {
	return &Client{
		archiveURL: archiveURL,
		entry:      "Vestas/V80_2.0MW.pow",
		skipLines:  4,
		bins:       bins,
		turbine:    "V80_2.0MW",
		policy:     domain.OutOfRangeZero,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func serveArchive(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, err := w.Write(payload)
		require.NoError(t, err)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchCurve_Success(t *testing.T) {
	powers := []float64{0, 0, 0, 25, 120, 280, 480, 740, 1060, 1380}
	archive := buildArchive(t, map[string]string{
		"Vestas/V80_2.0MW.pow": curveFileContents(powers),
		"GE/1.5sle.pow":        curveFileContents([]float64{0, 0, 10}),
	})
	srv := serveArchive(t, archive)

	c := testClient(srv.URL, len(powers))
	curve, err := c.FetchCurve(context.Background())
	require.NoError(t, err)

	require.Len(t, curve.Points, len(powers))
	assert.Equal(t, "V80_2.0MW", curve.Turbine)
	assert.Equal(t, 0.5, curve.Points[0].SpeedMS)
	assert.Equal(t, 9.5, curve.Points[9].SpeedMS)
	assert.Equal(t, 1380.0, curve.Points[9].PowerKW)
	assert.Equal(t, 1380.0, curve.RatedPowerKW())
}

func TestClient_FetchCurve_TempFileCleanedUp(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TMPDIR", tmpDir)

	archive := buildArchive(t, map[string]string{
		"Vestas/V80_2.0MW.pow": curveFileContents([]float64{0, 10, 50}),
	})
	srv := serveArchive(t, archive)

	c := testClient(srv.URL, 3)
	_, err := c.FetchCurve(context.Background())
	require.NoError(t, err)

	left, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, left, "downloaded archive should be removed")
}

func TestClient_FetchCurve_TempFileCleanedUpOnFailure(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TMPDIR", tmpDir)

	srv := serveArchive(t, []byte("not a zip"))

	c := testClient(srv.URL, 3)
	_, err := c.FetchCurve(context.Background())
	require.Error(t, err)

	left, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestClient_FetchCurve_MissingEntry(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"GE/1.5sle.pow": curveFileContents([]float64{0, 10, 50}),
	})
	srv := serveArchive(t, archive)

	c := testClient(srv.URL, 3)
	_, err := c.FetchCurve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry")
	assert.Contains(t, err.Error(), "Vestas/V80_2.0MW.pow")
}

func TestClient_FetchCurve_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	_, err := c.FetchCurve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestParseCurve(t *testing.T) {
	c := testClient("", 3)

	t.Run("speed power pairs take the last field", func(t *testing.T) {
		contents := "a\nb\nc\nd\n0.5 0\n1.5 12.5\n2.5 40\n"
		points, err := c.parseCurve(strings.NewReader(contents))
		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.Equal(t, 12.5, points[1].PowerKW)
		assert.Equal(t, 1.5, points[1].SpeedMS)
	})

	t.Run("short file reports expected bins", func(t *testing.T) {
		contents := "a\nb\nc\nd\n0\n10\n"
		_, err := c.parseCurve(strings.NewReader(contents))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "3 bins expected, got 2")
	})

	t.Run("bad power value rejected", func(t *testing.T) {
		contents := "a\nb\nc\nd\n0\now\n40\n"
		_, err := c.parseCurve(strings.NewReader(contents))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad power value")
	})
}
