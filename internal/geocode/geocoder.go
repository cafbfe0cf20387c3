package geocode

import (
	"context"
	"errors"
)

// Unknown is returned as the place name when a point has no city, town or
// village. Callers must treat it as a terminal input error.
const Unknown = "Unknown"

var (
	// ErrLocationUnresolved means the geocoder answered but found no usable
	// place name. Retrying the same point will not help.
	ErrLocationUnresolved = errors.New("unknown location")

	// ErrGeocoderUnavailable covers transport, status and decoding failures.
	ErrGeocoderUnavailable = errors.New("reverse geocoder unavailable")
)

// ReverseGeocoder resolves coordinates to a place name suitable for a
// weather lookup.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return Unknown
}
