package domain

import (
	"math"
	"time"
)

// Estimate maps every enriched observation to instantaneous power via the
// power curve. Records with an undefined corrected speed carry NaN power.
func Estimate(enriched []EnrichedObservation, curve *PowerCurve) []PowerEstimate {
	estimates := make([]PowerEstimate, len(enriched))
	for i, e := range enriched {
		estimates[i] = PowerEstimate{
			EnrichedObservation: e,
			PowerKW:             curve.PowerAt(e.CorrectedSpeed),
		}
	}
	return estimates
}

// Aggregate groups power estimates by calendar month and sums them into
// monthly and annual energy totals and capacity factors.
//
// Hours are derived from row count (count/samplesPerHour), independent of
// whether each record's power is defined: a record with missing density
// inputs still represents time at the site. NaN powers are excluded from the
// energy sum only. Months are emitted in calendar order; months absent from
// the series are omitted.
func Aggregate(estimates []PowerEstimate, samplesPerHour int, ratedPowerKW float64) ([]MonthlyAggregate, AnnualAggregate) {
	type bucket struct {
		count    int
		speedSum float64
		powerSum float64 // kW, NaN-excluded
	}

	buckets := make(map[time.Month]*bucket)
	for _, est := range estimates {
		m := est.Timestamp.UTC().Month()
		b := buckets[m]
		if b == nil {
			b = &bucket{}
			buckets[m] = b
		}
		b.count++
		b.speedSum += est.WindSpeed
		if est.Valid() {
			b.powerSum += est.PowerKW
		}
	}

	ratedMW := ratedPowerKW / 1000.0

	var monthly []MonthlyAggregate
	var annual AnnualAggregate
	for m := time.January; m <= time.December; m++ {
		b, ok := buckets[m]
		if !ok {
			continue
		}
		hours := float64(b.count) / float64(samplesPerHour)
		energyMWh := b.powerSum / (1000.0 * float64(samplesPerHour))

		agg := MonthlyAggregate{
			Month:         m,
			Hours:         hours,
			MeanWindSpeed: b.speedSum / float64(b.count),
			EnergyMWh:     energyMWh,
		}
		if hours > 0 && ratedMW > 0 {
			agg.CapacityFactor = energyMWh / (hours * ratedMW)
		}
		monthly = append(monthly, agg)

		annual.Hours += hours
		annual.EnergyMWh += energyMWh
	}

	if annual.Hours > 0 && ratedMW > 0 {
		annual.CapacityFactor = annual.EnergyMWh / (annual.Hours * ratedMW)
	}
	return monthly, annual
}

// CountGaps returns the number of estimates with undefined power.
func CountGaps(estimates []PowerEstimate) int {
	var gaps int
	for _, est := range estimates {
		if !est.Valid() {
			gaps++
		}
	}
	return gaps
}

// NewAssessment assembles the final assessment output, stamped with the
// package clock so fixtures and tests stay deterministic.
func NewAssessment(site Site, year int, curve *PowerCurve, meanDensity float64, monthly []MonthlyAggregate, annual AnnualAggregate) Assessment {
	if math.IsNaN(meanDensity) {
		meanDensity = 0
	}
	return Assessment{
		Site:         site,
		Year:         year,
		Turbine:      curve.Turbine,
		RatedPowerKW: curve.RatedPowerKW(),
		MeanDensity:  meanDensity,
		Monthly:      monthly,
		Annual:       annual,
		GeneratedAt:  clock.Now().UTC(),
	}
}
