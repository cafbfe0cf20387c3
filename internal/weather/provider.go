package weather

import (
	"context"
	"errors"
)

// ErrWeatherFetch marks any failure talking to the weather provider.
var ErrWeatherFetch = errors.New("weather fetch failed")

// Provider abstracts a weather data source (e.g. Visual Crossing).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, locationQuery string) (Snapshot, error)
}
