package domain

import (
	"math"
	"time"
)

// Observation is one raw meteorological record for the candidate site.
// Wind speed and direction are measured at the configured hub height;
// temperature and pressure are the surface values the source reports
// alongside them.
type Observation struct {
	Timestamp   time.Time `json:"timestamp"`    // UTC instant
	WindSpeed   float64   `json:"wind_speed"`   // m/s
	WindDir     float64   `json:"wind_dir"`     // degrees
	Temperature float64   `json:"temperature"`  // Kelvin
	Pressure    float64   `json:"pressure"`     // Pascals
}

// EnrichedObservation augments an Observation with derived air density and
// the density-corrected wind speed. Density and CorrectedSpeed are NaN when
// the record's temperature or pressure is missing or non-positive.
type EnrichedObservation struct {
	Observation
	Density        float64 `json:"density"`         // kg/m³
	CorrectedSpeed float64 `json:"corrected_speed"` // m/s at reference density
}

// PowerEstimate augments an EnrichedObservation with the instantaneous power
// read off the turbine power curve at the corrected speed. Power is NaN when
// the corrected speed is undefined.
type PowerEstimate struct {
	EnrichedObservation
	PowerKW float64 `json:"power_kw"`
}

// Valid reports whether the estimate carries a defined power value.
func (p PowerEstimate) Valid() bool {
	return !math.IsNaN(p.PowerKW)
}

// MonthlyAggregate summarizes estimated energy capture for one calendar month.
type MonthlyAggregate struct {
	Month          time.Month `json:"month"`
	Hours          float64    `json:"hours"`
	MeanWindSpeed  float64    `json:"mean_wind_speed"` // m/s, raw speeds
	EnergyMWh      float64    `json:"energy_mwh"`
	CapacityFactor float64    `json:"capacity_factor"` // 0.0–1.0
}

// AnnualAggregate sums the monthly energies and carries the overall
// capacity factor for the assessed period.
type AnnualAggregate struct {
	Hours          float64 `json:"hours"`
	EnergyMWh      float64 `json:"energy_mwh"`
	CapacityFactor float64 `json:"capacity_factor"`
}

// Site identifies the assessed location.
type Site struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Geocoding enrichment, populated when a site labeler is configured.
	FormattedAddress string `json:"formatted_address,omitempty"`
}

// Assessment is the complete output of one assessment run.
type Assessment struct {
	Site         Site               `json:"site"`
	Year         int                `json:"year"`
	Turbine      string             `json:"turbine"`
	RatedPowerKW float64            `json:"rated_power_kw"`
	MeanDensity  float64            `json:"mean_density"` // kg/m³, series baseline
	Monthly      []MonthlyAggregate `json:"monthly"`
	Annual       AnnualAggregate    `json:"annual"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
