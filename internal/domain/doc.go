// Package domain models wind-resource assessment for a candidate turbine site.
//
// # Data Source
//
// Observations come from the NREL Wind Integration National Dataset (WIND)
// Toolkit CSV download API. Each record carries wind speed and direction at
// the configured hub height plus air temperature (Kelvin) and surface
// pressure (Pascals) at 5-minute resolution across one calendar year.
// Timestamps are strictly increasing and evenly spaced; speeds are
// non-negative.
//
// # Density Correction
//
// Air density is derived per record as ρ = P/(R·T) with R = 287.05 J/(kg·K).
// Wind speed is then rescaled to the series mean density:
//
//	v_corrected = v_raw · (ρ/ρ̄)^(1/3)
//
// The cube root preserves expected power, which scales with ρ·v³. The
// baseline ρ̄ is the mean over the entire series, so enrichment runs in two
// phases: a full pass to establish ρ̄, then a map over the records. Records
// with missing or non-positive temperature or pressure carry NaN density and
// NaN corrected speed; downstream sums skip them but every row still counts
// toward elapsed hours.
//
// # Power Curves
//
// Published turbine curves sample power at integer wind-speed bins, typically
// 0.5–29.5 m/s in 1 m/s steps. [PowerCurve.PowerAt] interpolates linearly
// between bracketing samples and is exact at sample points. Behavior outside
// the sampled range is an explicit [OutOfRangePolicy]: "zero" (default)
// returns 0 kW below cut-in and beyond cut-out, "clamp" returns the nearest
// endpoint. The curve's maximum sample stands in for nameplate capacity when
// computing capacity factors.
//
// # Aggregation
//
// Energy is aggregated by calendar month:
//
//	hours      = record count / samples per hour
//	energy MWh = Σ power kW / (1000 · samples per hour)
//	capacity factor = energy MWh / (hours · rated MW)
//
// The annual row sums the monthly energies exactly. Aggregation is pure and
// idempotent: the same series and curve always produce the same output.
package domain
