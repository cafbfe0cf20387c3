package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/flood-risk/internal/upstream"
	"github.com/i474232898/flood-risk/pkg/logger"
)

const NominatimBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim implements ReverseGeocoder against the OpenStreetMap Nominatim API.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *upstream.Client
	l         *logger.Logger
}

func NewNominatim(client *upstream.Client, baseURL, userAgent string, l *logger.Logger) *Nominatim {
	if baseURL == "" {
		baseURL = NominatimBaseURL
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
		l:         l,
	}
}

type nominatimResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
	} `json:"address"`
}

// ReverseGeocode returns the first of city, town or village, or Unknown.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+values.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrGeocoderUnavailable, err)
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeocoderUnavailable, err)
	}
	defer resp.Body.Close()

	var payload nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrGeocoderUnavailable, err)
	}

	place := firstNonEmpty(payload.Address.City, payload.Address.Town, payload.Address.Village)

	n.l.Debug("reverse geocoded point", map[string]any{
		"lat":   lat,
		"lon":   lon,
		"place": place,
	})

	return place, nil
}
