package domain

import "math"

// SpecificGasConstant is the specific gas constant for dry air in J/(kg·K).
// With pressure in Pascals (J/m³) and temperature in Kelvin, P/(R·T) yields
// kg/m³ directly, so no additional unit scaling is applied.
const SpecificGasConstant = 287.05

// AirDensity computes dry-air density ρ = P/(R·T) in kg/m³.
// Returns NaN when temperature or pressure is missing or non-positive, so a
// bad record degrades to a gap instead of aborting the batch.
func AirDensity(temperatureK, pressurePa float64) float64 {
	if !(temperatureK > 0) || !(pressurePa > 0) {
		return math.NaN()
	}
	return pressurePa / (SpecificGasConstant * temperatureK)
}

// MeanDensity returns the arithmetic mean air density over all records with
// valid temperature and pressure. Returns NaN when no record is valid.
func MeanDensity(observations []Observation) float64 {
	var sum float64
	var n int
	for _, obs := range observations {
		rho := AirDensity(obs.Temperature, obs.Pressure)
		if math.IsNaN(rho) {
			continue
		}
		sum += rho
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// CorrectSpeed rescales a raw wind speed to the reference density using the
// cube-root correction v·(ρ/ρ̄)^(1/3), which preserves expected power since
// power scales with ρ·v³. Returns NaN when either density is undefined.
func CorrectSpeed(rawSpeed, density, meanDensity float64) float64 {
	if math.IsNaN(density) || math.IsNaN(meanDensity) || meanDensity <= 0 {
		return math.NaN()
	}
	return rawSpeed * math.Cbrt(density/meanDensity)
}

// Enrich derives air density and density-corrected wind speed for every
// observation. The correction baseline is the mean density of the entire
// series, so the computation is two-phase: one pass to establish ρ̄, then a
// map over the records. Records with invalid temperature or pressure carry
// NaN density and NaN corrected speed.
func Enrich(observations []Observation) []EnrichedObservation {
	meanDensity := MeanDensity(observations)

	enriched := make([]EnrichedObservation, len(observations))
	for i, obs := range observations {
		rho := AirDensity(obs.Temperature, obs.Pressure)
		enriched[i] = EnrichedObservation{
			Observation:    obs,
			Density:        rho,
			CorrectedSpeed: CorrectSpeed(obs.WindSpeed, rho, meanDensity),
		}
	}
	return enriched
}
