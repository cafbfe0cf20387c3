package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/flood-risk/internal/upstream"
	"github.com/i474232898/flood-risk/internal/weather"
	"github.com/i474232898/flood-risk/pkg/logger"
)

const VisualCrossingBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

// VisualCrossingProvider implements weather.Provider for the Visual Crossing
// Timeline API.
type VisualCrossingProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *upstream.Client
	l       *logger.Logger
}

func NewVisualCrossingProvider(client *upstream.Client, baseURL, apiKey string, l *logger.Logger) *VisualCrossingProvider {
	if baseURL == "" {
		baseURL = VisualCrossingBaseURL
	}
	return &VisualCrossingProvider{
		name:    "visualcrossing",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		l:       l,
	}
}

func (p *VisualCrossingProvider) Name() string {
	return p.name
}

type visualCrossingResponse struct {
	Latitude        float64             `json:"latitude"`
	Longitude       float64             `json:"longitude"`
	ResolvedAddress string              `json:"resolvedAddress"`
	Days            []weather.DayRecord `json:"days"`
	Alerts          []weather.Alert     `json:"alerts"`
}

// Fetch requests the timeline for a city name. Any transport, status or
// decoding failure is reported as weather.ErrWeatherFetch.
func (p *VisualCrossingProvider) Fetch(ctx context.Context, locationQuery string) (weather.Snapshot, error) {
	city := strings.TrimSpace(locationQuery)
	if city == "" {
		return weather.Snapshot{}, fmt.Errorf("%w: empty location", weather.ErrWeatherFetch)
	}

	values := url.Values{}
	values.Set("unitGroup", "us")
	values.Set("key", p.apiKey)
	values.Set("contentType", "json")
	values.Set("include", "current,hours,alerts,events")

	u := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(city), values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: create request: %v", weather.ErrWeatherFetch, err)
	}

	p.l.Debug("fetching weather", map[string]any{"provider": p.name, "city": city})

	resp, err := p.client.Do(req)
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrWeatherFetch, err)
	}
	defer resp.Body.Close()

	var payload visualCrossingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: decode response: %v", weather.ErrWeatherFetch, err)
	}

	p.l.Debug("weather fetched", map[string]any{
		"provider":        p.name,
		"resolvedAddress": payload.ResolvedAddress,
		"days":            len(payload.Days),
		"alerts":          len(payload.Alerts),
	})

	return weather.Snapshot{
		Latitude:        payload.Latitude,
		Longitude:       payload.Longitude,
		ResolvedAddress: payload.ResolvedAddress,
		Days:            payload.Days,
		Alerts:          payload.Alerts,
	}, nil
}
