package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vanfinder/models"
)

const DefaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

var (
	// ErrNoResults means the geocoder understood the request but found nothing.
	ErrNoResults = errors.New("no results found")
	// ErrRejected means the geocoder refused the request and retrying the same
	// address will not help.
	ErrRejected = errors.New("request rejected")
)

// Geocoder resolves a free-form address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Location, error)
}

// GoogleGeocoder calls the Google Maps Geocoding API.
type GoogleGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewGoogleGeocoder returns a geocoder using the public endpoint.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		APIKey:  apiKey,
		BaseURL: DefaultGeocodeURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Geocode looks up address and returns the first result.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (models.Location, error) {
	if strings.TrimSpace(address) == "" {
		return models.Location{}, fmt.Errorf("%w: empty address", ErrRejected)
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return models.Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result struct {
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.Location{}, fmt.Errorf("failed to decode response: %w", err)
	}

	switch result.Status {
	case "OK":
	case "ZERO_RESULTS":
		return models.Location{}, ErrNoResults
	case "INVALID_REQUEST", "REQUEST_DENIED":
		return models.Location{}, fmt.Errorf("%w: %s", ErrRejected, result.Status)
	default:
		return models.Location{}, fmt.Errorf("API error: %s", result.Status)
	}
	if len(result.Results) == 0 {
		return models.Location{}, ErrNoResults
	}

	loc := result.Results[0].Geometry.Location
	return models.Location{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}

// vendorAddress builds the lookup string for a vendor.
func vendorAddress(v models.Vendor) string {
	var parts []string
	for _, p := range []string{v.Name, v.Address} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// permanent reports whether err means the vendor's address can never be
// resolved as it stands.
func permanent(err error) bool {
	return errors.Is(err, ErrNoResults) || errors.Is(err, ErrRejected)
}
