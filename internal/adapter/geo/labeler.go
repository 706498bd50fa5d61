package geo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kelvins/geocoder"
)

// Labeler resolves a site's coordinates to a human-readable address for
// report headers, using the Google Maps geocoding API via kelvins/geocoder.
type Labeler struct {
	logger *slog.Logger
}

// NewLabeler creates a reverse-geocoding labeler. The library keeps its API
// key in package state, so the key is bound once here rather than per call.
func NewLabeler(apiKey string, logger *slog.Logger) *Labeler {
	geocoder.ApiKey = apiKey
	return &Labeler{logger: logger}
}

// Label reverse-geocodes the coordinates. The underlying library does not
// take a context; the parameter keeps the call site uniform with the other
// adapters.
func (l *Labeler) Label(_ context.Context, lat, lon float64) (string, error) {
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  lat,
		Longitude: lon,
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode %.4f,%.4f: %w", lat, lon, err)
	}
	if len(addresses) == 0 {
		return "", fmt.Errorf("reverse geocode %.4f,%.4f: no results", lat, lon)
	}
	return addresses[0].FormattedAddress, nil
}
