package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gustline/windsite/internal/domain"
	"github.com/gustline/windsite/internal/observability"
)

// SeriesFetcher loads one year of meteorological observations for a point.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, lat, lon float64, year int) ([]domain.Observation, error)
}

// CurveFetcher loads the configured turbine's power curve.
type CurveFetcher interface {
	FetchCurve(ctx context.Context) (*domain.PowerCurve, error)
}

// SiteLabeler resolves coordinates to an address for report headers.
type SiteLabeler interface {
	Label(ctx context.Context, lat, lon float64) (string, error)
}

// ResultPublisher delivers a finished assessment downstream.
type ResultPublisher interface {
	Publish(ctx context.Context, assessment domain.Assessment) error
}

// Assessor orchestrates one fetch-enrich-estimate-aggregate pass.
// Acquisition failures abort the run; per-record gaps degrade to missing
// values inside the domain layer. There are no automatic retries.
type Assessor struct {
	series    SeriesFetcher
	curves    CurveFetcher
	labeler   SiteLabeler     // nil when site labeling is disabled
	publisher ResultPublisher // nil when publishing is disabled

	site           domain.Site
	year           int
	samplesPerHour int

	logger  *slog.Logger
	metrics *observability.Metrics

	ready atomic.Bool
	mu    sync.Mutex
	last  *domain.Assessment
}

// New creates an Assessor. Pass a nil labeler or publisher to disable the
// corresponding enrichment.
func New(series SeriesFetcher, curves CurveFetcher, labeler SiteLabeler, publisher ResultPublisher,
	site domain.Site, year, samplesPerHour int,
	logger *slog.Logger, metrics *observability.Metrics,
) *Assessor {
	return &Assessor{
		series:         series,
		curves:         curves,
		labeler:        labeler,
		publisher:      publisher,
		site:           site,
		year:           year,
		samplesPerHour: samplesPerHour,
		logger:         logger,
		metrics:        metrics,
	}
}

// Run executes one assessment pass and returns the result.
func (a *Assessor) Run(ctx context.Context) (domain.Assessment, error) {
	start := time.Now()
	a.metrics.AssessmentRunning.Set(1)
	defer a.metrics.AssessmentRunning.Set(0)

	a.logger.Info("assessment starting",
		"site", a.site.Name,
		"lat", a.site.Latitude,
		"lon", a.site.Longitude,
		"year", a.year,
	)

	fetchStart := time.Now()
	curve, err := a.curves.FetchCurve(ctx)
	if err != nil {
		a.metrics.AssessmentFailures.Inc()
		return domain.Assessment{}, fmt.Errorf("load power curve: %w", err)
	}
	a.metrics.FetchDuration.WithLabelValues("turbinedb").Observe(time.Since(fetchStart).Seconds())

	fetchStart = time.Now()
	observations, err := a.series.FetchSeries(ctx, a.site.Latitude, a.site.Longitude, a.year)
	if err != nil {
		a.metrics.AssessmentFailures.Inc()
		return domain.Assessment{}, fmt.Errorf("load meteorological series: %w", err)
	}
	a.metrics.FetchDuration.WithLabelValues("wtk").Observe(time.Since(fetchStart).Seconds())
	a.metrics.ObservationsLoaded.Add(float64(len(observations)))

	enriched := domain.Enrich(observations)
	estimates := domain.Estimate(enriched, curve)

	gaps := domain.CountGaps(estimates)
	if gaps > 0 {
		a.metrics.RecordGaps.Add(float64(gaps))
		a.logger.Warn("records with undefined power excluded from energy sums",
			"gaps", gaps, "records", len(estimates))
	}

	monthly, annual := domain.Aggregate(estimates, a.samplesPerHour, curve.RatedPowerKW())

	site := a.labelSite(ctx)
	assessment := domain.NewAssessment(site, a.year, curve, domain.MeanDensity(observations), monthly, annual)

	a.publish(ctx, assessment)

	a.metrics.AssessmentsTotal.Inc()
	a.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	a.metrics.LastCapacityFactor.Set(annual.CapacityFactor)
	a.metrics.LastAnnualMWh.Set(annual.EnergyMWh)

	a.mu.Lock()
	a.last = &assessment
	a.mu.Unlock()
	a.ready.Store(true)

	a.logger.Info("assessment complete",
		"records", len(estimates),
		"gaps", gaps,
		"annual_mwh", annual.EnergyMWh,
		"capacity_factor", annual.CapacityFactor,
		"duration", time.Since(start),
	)
	return assessment, nil
}

// labelSite attaches a reverse-geocoded address when a labeler is configured.
// Labeling failures degrade to the bare coordinates.
func (a *Assessor) labelSite(ctx context.Context) domain.Site {
	site := a.site
	if a.labeler == nil {
		return site
	}
	address, err := a.labeler.Label(ctx, site.Latitude, site.Longitude)
	if err != nil {
		a.logger.Warn("site labeling failed", "error", err)
		return site
	}
	site.FormattedAddress = address
	return site
}

// publish sends the assessment downstream when a publisher is configured.
// The assessment itself has already succeeded, so a delivery failure is
// logged rather than returned.
func (a *Assessor) publish(ctx context.Context, assessment domain.Assessment) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, assessment); err != nil {
		a.logger.Error("publish assessment failed", "error", err)
	}
}

// Latest returns the most recent assessment, if any run has completed.
func (a *Assessor) Latest() (domain.Assessment, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return domain.Assessment{}, false
	}
	return *a.last, true
}

// CheckReadiness returns nil once at least one assessment has completed.
func (a *Assessor) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("no assessment has completed yet")
	}
	return nil
}
