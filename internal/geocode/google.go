package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/flood-risk/pkg/logger"
)

// googleNoResults is the error text kelvins/geocoder returns for any
// non-OK status, ZERO_RESULTS included.
const googleNoResults = "No results found."

// Google implements ReverseGeocoder with the Google Geocoding API.
type Google struct {
	reverse func(geocoder.Location) ([]geocoder.Address, error)
	timeout time.Duration
	l       *logger.Logger
}

// NewGoogle configures the geocoder package with apiKey. The key is process
// wide, so only one Google geocoder should be built.
func NewGoogle(apiKey string, timeout time.Duration, l *logger.Logger) *Google {
	geocoder.ApiKey = apiKey
	return &Google{
		reverse: geocoder.GeocodingReverse,
		timeout: timeout,
		l:       l,
	}
}

type googleResult struct {
	addresses []geocoder.Address
	err       error
}

// ReverseGeocode returns the city of the best match, or Unknown. The
// underlying client takes no context and sets no timeout, so the call runs
// in its own goroutine and is abandoned when ctx ends or timeout elapses.
func (g *Google) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeocoderUnavailable, err)
	}

	done := make(chan googleResult, 1)
	go func() {
		addresses, err := g.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
		done <- googleResult{addresses: addresses, err: err}
	}()

	var expired <-chan time.Time
	if g.timeout > 0 {
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var res googleResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrGeocoderUnavailable, ctx.Err())
	case <-expired:
		return "", fmt.Errorf("%w: no answer within %s", ErrGeocoderUnavailable, g.timeout)
	}

	if res.err != nil {
		if res.err.Error() == googleNoResults {
			return Unknown, nil
		}
		return "", fmt.Errorf("%w: %v", ErrGeocoderUnavailable, res.err)
	}
	if len(res.addresses) == 0 {
		return Unknown, nil
	}

	place := firstNonEmpty(res.addresses[0].City)

	g.l.Debug("reverse geocoded point", map[string]any{
		"lat":      lat,
		"lon":      lon,
		"place":    place,
		"provider": "google",
	})

	return place, nil
}
