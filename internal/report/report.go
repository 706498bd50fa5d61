// Package report renders assessment output for humans. Plot generation is
// left to downstream tooling; the JSON form of an Assessment carries
// everything a presentation layer needs.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gustline/windsite/internal/domain"
)

// Render writes the monthly and annual summary tables.
func Render(w io.Writer, a domain.Assessment) error {
	label := a.Site.Name
	if label == "" {
		label = fmt.Sprintf("%.4f, %.4f", a.Site.Latitude, a.Site.Longitude)
	}
	if a.Site.FormattedAddress != "" {
		label += " (" + a.Site.FormattedAddress + ")"
	}

	fmt.Fprintf(w, "Wind site assessment: %s\n", label)
	fmt.Fprintf(w, "Year %d, turbine %s, rated %.0f kW, mean air density %.3f kg/m3\n\n",
		a.Year, a.Turbine, a.RatedPowerKW, a.MeanDensity)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Month\tHours\tMean m/s\tMWh\tCF %\t")
	for _, m := range a.Monthly {
		fmt.Fprintf(tw, "%s\t%.0f\t%.2f\t%.1f\t%.1f\t\n",
			m.Month.String()[:3], m.Hours, m.MeanWindSpeed, m.EnergyMWh, m.CapacityFactor*100)
	}
	fmt.Fprintf(tw, "Annual\t%.0f\t\t%.1f\t%.1f\t\n",
		a.Annual.Hours, a.Annual.EnergyMWh, a.Annual.CapacityFactor*100)
	return tw.Flush()
}
