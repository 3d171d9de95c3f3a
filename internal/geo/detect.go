package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Location is the place prayer times are computed for. It is a value
// object: the engine never mutates it.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone,omitempty"` // IANA name, e.g. "Europe/London"
}

// ErrInvalidCoordinates is returned by Validate for out-of-range or NaN coordinates.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Validate checks latitude ∈ [-90,90] and longitude ∈ [-180,180].
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, l.Longitude)
	}
	return nil
}

// Label returns "City, Country" or the coordinates when either is missing.
func (l Location) Label() string {
	if l.City != "" && l.Country != "" {
		return l.City + ", " + l.Country
	}
	return fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude)
}

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

// geoAPIURL is a variable so tests can point it at an httptest server.
var geoAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

// DetectLocation uses ip-api.com to determine the user's location from their
// public IP address. The service is free and needs no API key.
func DetectLocation() (*Location, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(geoAPIURL)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("geolocation failed: %s", result.Message)
	}

	loc := &Location{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		City:      result.City,
		Country:   result.Country,
		Timezone:  result.Timezone,
	}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("geolocation returned %w", err)
	}
	return loc, nil
}
