// Command genfixture generates a synthetic WIND Toolkit CSV fixture and the
// matching expected assessment JSON. It uses the actual domain package so the
// expected output tracks real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -csv-out testdata/wtk_2012.csv \
//	  -json-out testdata/assessment_2012.json \
//	  -year 2012 -days 365
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gustline/windsite/internal/domain"
)

const samplesPerHour = 12

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "", "output path for the WIND Toolkit CSV fixture")
	jsonOut := flag.String("json-out", "", "output path for the expected assessment JSON")
	year := flag.Int("year", 2012, "data year for the synthetic series")
	days := flag.Int("days", 365, "number of days to generate, starting January 1")
	seed := flag.Int64("seed", 1, "random seed for the synthetic weather")
	flag.Parse()

	if *csvOut == "" || *jsonOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -json-out")
	}

	// Fixed clock for a reproducible GeneratedAt stamp.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(*year+1, time.February, 1, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	observations := synthesize(*year, *days, rand.New(rand.NewSource(*seed)))

	if err := writeCSV(*csvOut, observations); err != nil {
		return fmt.Errorf("writing CSV fixture: %w", err)
	}
	log.Printf("wrote CSV fixture: %s (%d rows)", *csvOut, len(observations))

	curve, err := referenceCurve()
	if err != nil {
		return fmt.Errorf("building reference curve: %w", err)
	}

	enriched := domain.Enrich(observations)
	estimates := domain.Estimate(enriched, curve)
	monthly, annual := domain.Aggregate(estimates, samplesPerHour, curve.RatedPowerKW())

	site := domain.Site{Name: "Fixture Site", Latitude: 40.45, Longitude: -88.37}
	assessment := domain.NewAssessment(site, *year, curve,
		domain.MeanDensity(observations), monthly, annual)

	if err := writeJSON(*jsonOut, assessment); err != nil {
		return fmt.Errorf("writing assessment fixture: %w", err)
	}
	log.Printf("wrote assessment fixture: %s", *jsonOut)

	printStats(estimates, assessment)
	return nil
}

// synthesize builds a 5-minute series with a diurnal wind cycle, seasonal
// temperature swing, and random gusts. A small fraction of rows has blank
// pressure readings to exercise gap handling.
func synthesize(year, days int, rng *rand.Rand) []domain.Observation {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	n := days * 24 * samplesPerHour
	observations := make([]domain.Observation, 0, n)

	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * 5 * time.Minute)
		dayFrac := float64(ts.YearDay()) / 365.0
		hourFrac := float64(ts.Hour()*60+ts.Minute()) / (24 * 60)

		// Stronger winds in winter and in the afternoon.
		speed := 7.5 +
			2.0*math.Cos(2*math.Pi*dayFrac) +
			1.5*math.Sin(2*math.Pi*(hourFrac-0.25)) +
			rng.NormFloat64()*1.2
		if speed < 0 {
			speed = 0
		}

		temp := 283.0 + 12.0*math.Sin(2*math.Pi*(dayFrac-0.25)) + rng.NormFloat64()*2.0
		pressure := 98500.0 + rng.NormFloat64()*300.0

		// Roughly 0.5% of rows lose the pressure reading.
		if rng.Float64() < 0.005 {
			pressure = 0
		}

		observations = append(observations, domain.Observation{
			Timestamp:   ts,
			WindSpeed:   speed,
			WindDir:     rng.Float64() * 360,
			Temperature: temp,
			Pressure:    pressure,
		})
	}
	return observations
}

// referenceCurve approximates a 2 MW turbine: cubic ramp from cut-in at
// 4 m/s to rated at 13 m/s, flat to the last bin.
func referenceCurve() (*domain.PowerCurve, error) {
	points := make([]domain.PowerCurvePoint, 0, 30)
	for i := 0; i < 30; i++ {
		speed := 0.5 + float64(i)
		var power float64
		switch {
		case speed < 4:
			power = 0
		case speed >= 13:
			power = 2000
		default:
			frac := (speed - 4) / 9
			power = 2000 * frac * frac * frac
		}
		points = append(points, domain.PowerCurvePoint{SpeedMS: speed, PowerKW: power})
	}
	return domain.NewPowerCurve("Fixture_2.0MW", points, domain.OutOfRangeZero)
}

// writeCSV emits the fixture in WIND Toolkit layout: one metadata row, a
// header row, then 5-minute samples. Rows with a missing pressure reading
// get a blank cell, matching how the upstream API represents gaps.
func writeCSV(path string, observations []domain.Observation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	meta := []string{"SiteID", "fixture", "Longitude", "-88.37", "Latitude", "40.45"}
	if err := w.Write(meta); err != nil {
		return err
	}
	header := []string{
		"Year", "Month", "Day", "Hour", "Minute",
		"windspeed_100m (m/s)", "winddirection_100m (deg)",
		"air temperature at 100m (K)", "surface air pressure (Pa)",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, o := range observations {
		pressure := strconv.FormatFloat(o.Pressure, 'f', 1, 64)
		if o.Pressure == 0 {
			pressure = ""
		}
		row := []string{
			strconv.Itoa(o.Timestamp.Year()),
			strconv.Itoa(int(o.Timestamp.Month())),
			strconv.Itoa(o.Timestamp.Day()),
			strconv.Itoa(o.Timestamp.Hour()),
			strconv.Itoa(o.Timestamp.Minute()),
			strconv.FormatFloat(o.WindSpeed, 'f', 3, 64),
			strconv.FormatFloat(o.WindDir, 'f', 1, 64),
			strconv.FormatFloat(o.Temperature, 'f', 2, 64),
			pressure,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(estimates []domain.PowerEstimate, a domain.Assessment) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d, gaps: %d\n", len(estimates), domain.CountGaps(estimates))
	fmt.Printf("Mean density: %.4f kg/m3\n", a.MeanDensity)
	fmt.Printf("Annual: %.2f MWh, CF %.4f over %.1f h\n",
		a.Annual.EnergyMWh, a.Annual.CapacityFactor, a.Annual.Hours)
	for _, m := range a.Monthly {
		fmt.Printf("  %s: %.2f MWh, CF %.4f\n", m.Month, m.EnergyMWh, m.CapacityFactor)
	}
}
