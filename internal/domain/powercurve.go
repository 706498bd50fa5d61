package domain

import (
	"fmt"
	"math"
	"sort"
)

// OutOfRangePolicy controls what PowerAt returns for speeds outside the
// sampled range. The published curves leave this undefined, so the choice is
// explicit configuration rather than silent extrapolation.
type OutOfRangePolicy string

const (
	// OutOfRangeZero returns 0 kW below the first sample (below cut-in) and
	// above the last sample (beyond cut-out). This is the default.
	OutOfRangeZero OutOfRangePolicy = "zero"

	// OutOfRangeClamp returns the nearest endpoint's power value.
	OutOfRangeClamp OutOfRangePolicy = "clamp"
)

// ParseOutOfRangePolicy validates a policy string from configuration.
func ParseOutOfRangePolicy(s string) (OutOfRangePolicy, error) {
	switch OutOfRangePolicy(s) {
	case OutOfRangeZero, OutOfRangeClamp:
		return OutOfRangePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown out-of-range policy %q (want %q or %q)", s, OutOfRangeZero, OutOfRangeClamp)
	}
}

// PowerCurvePoint is one published (wind speed, power output) sample for a
// turbine model.
type PowerCurvePoint struct {
	SpeedMS float64 `json:"speed_ms"`
	PowerKW float64 `json:"power_kw"`
}

// PowerCurve maps wind speed to power output for a turbine model by
// piecewise-linear interpolation between published samples.
type PowerCurve struct {
	Turbine string
	Points  []PowerCurvePoint
	Policy  OutOfRangePolicy
}

// NewPowerCurve builds a curve from samples. Samples must be non-empty with
// strictly increasing speeds and non-negative power; monotonicity of power is
// not required (curves plateau at rated speed and may cut out).
func NewPowerCurve(turbine string, points []PowerCurvePoint, policy OutOfRangePolicy) (*PowerCurve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("power curve for %s: no samples", turbine)
	}
	if policy == "" {
		policy = OutOfRangeZero
	}
	for i, p := range points {
		if p.PowerKW < 0 {
			return nil, fmt.Errorf("power curve for %s: negative power %.2f kW at %.2f m/s", turbine, p.PowerKW, p.SpeedMS)
		}
		if i > 0 && p.SpeedMS <= points[i-1].SpeedMS {
			return nil, fmt.Errorf("power curve for %s: speeds not strictly increasing at index %d", turbine, i)
		}
	}
	return &PowerCurve{Turbine: turbine, Points: points, Policy: policy}, nil
}

// PowerAt interpolates the curve at the given speed. Speeds at sample points
// return the sample power exactly; speeds between samples interpolate
// linearly; speeds outside the sampled range follow the configured policy.
// NaN speeds (undefined density correction) yield NaN power.
func (c *PowerCurve) PowerAt(speed float64) float64 {
	if math.IsNaN(speed) {
		return math.NaN()
	}

	first, last := c.Points[0], c.Points[len(c.Points)-1]
	if speed < first.SpeedMS {
		if c.Policy == OutOfRangeClamp {
			return first.PowerKW
		}
		return 0
	}
	if speed > last.SpeedMS {
		if c.Policy == OutOfRangeClamp {
			return last.PowerKW
		}
		return 0
	}

	// Index of the first sample with SpeedMS >= speed.
	i := sort.Search(len(c.Points), func(i int) bool {
		return c.Points[i].SpeedMS >= speed
	})
	if c.Points[i].SpeedMS == speed {
		return c.Points[i].PowerKW
	}

	lo, hi := c.Points[i-1], c.Points[i]
	frac := (speed - lo.SpeedMS) / (hi.SpeedMS - lo.SpeedMS)
	return lo.PowerKW + frac*(hi.PowerKW-lo.PowerKW)
}

// RatedPowerKW returns the curve's maximum sample power, used as the
// nameplate capacity when computing capacity factors.
func (c *PowerCurve) RatedPowerKW() float64 {
	var rated float64
	for _, p := range c.Points {
		if p.PowerKW > rated {
			rated = p.PowerKW
		}
	}
	return rated
}
