// Package geo wraps the external geocoding provider behind a narrow
// interface and provides the distance math for radius searches.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jobsterhq/jobster-be/internal/apperror"
	"github.com/jobsterhq/jobster-be/internal/models"
)

// Geocoder resolves free-form address text to coordinates and normalized
// locality fields.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Location, error)
}

// NominatimClient is a Geocoder over a Nominatim-compatible HTTP endpoint.
type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatimClient creates a client for the given endpoint. The provider
// requires an identifying User-Agent.
func NewNominatimClient(baseURL, userAgent string) *NominatimClient {
	return &NominatimClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country_code"`
	} `json:"address"`
}

// Geocode resolves an address. A provider failure or an empty result set is
// a GeocodingError; callers must fail the write rather than store a posting
// without a location.
func (c *NominatimClient) Geocode(ctx context.Context, address string) (models.Location, error) {
	endpoint := fmt.Sprintf("%s/search?format=json&addressdetails=1&limit=1&q=%s",
		c.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Location{}, apperror.NewGeocoding("Unable to resolve address", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Location{}, apperror.NewGeocoding("Geocoding provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, apperror.NewGeocoding(
			fmt.Sprintf("Geocoding provider returned status %d", resp.StatusCode), nil)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.Location{}, apperror.NewGeocoding("Malformed geocoding response", err)
	}
	if len(results) == 0 {
		return models.Location{}, apperror.NewGeocoding("No location found for address: "+address, nil)
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return models.Location{}, apperror.NewGeocoding("Malformed geocoding response", err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return models.Location{}, apperror.NewGeocoding("Malformed geocoding response", err)
	}

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}

	return models.Location{
		Latitude:         lat,
		Longitude:        lng,
		FormattedAddress: r.DisplayName,
		City:             city,
		State:            r.Address.State,
		Zipcode:          r.Address.Postcode,
		Country:          r.Address.Country,
	}, nil
}
