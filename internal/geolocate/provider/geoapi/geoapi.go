// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geolocate"
	"github.com/fides-app/fides-places/internal/http"
)

const (
	APIEndpoint   = "https://geoapi.info/api/geo"
	LookupTimeout = time.Second * 5
	name          = "geoapi"
)

var ErrNoLocation = errors.New("GeoAPI returned no location for this address")

// GeolocationGeoAPIProvider is an IP based fallback next to GeoIP, backed by a different
// database.
type GeolocationGeoAPIProvider struct {
	name     string
	endpoint string
	http     *http.Client
}

type APIResult struct {
	IP       string `json:"ip"`
	Location struct {
		CountryCode string `json:"country,omitempty"`
		Country     string `json:"countryName,omitempty"`
		Region      string `json:"region,omitempty"`
		City        string `json:"city,omitempty"`
		ZipCode     string `json:"postalCode,omitempty"`
		TimeZone    string `json:"timezone"`
		Coordinates struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"coordinates"`
	} `json:"location"`
}

func NewGeolocationGeoAPIProvider(http *http.Client) (*GeolocationGeoAPIProvider, error) {
	if http == nil {
		return nil, errors.New("http client is required")
	}
	return &GeolocationGeoAPIProvider{
		name:     name,
		endpoint: APIEndpoint,
		http:     http,
	}, nil
}

func (p *GeolocationGeoAPIProvider) Name() string {
	return p.name
}

func (p *GeolocationGeoAPIProvider) Locate(ctx context.Context) (geolocate.Fix, error) {
	ctxHttp, cancelHttp := context.WithTimeout(ctx, LookupTimeout)
	defer cancelHttp()

	result := new(APIResult)
	if _, err := p.http.Get(ctxHttp, p.endpoint, result, nil, nil); err != nil {
		return geolocate.Fix{}, geolocate.FromContext(p.name,
			fmt.Errorf("failed to get geolocation data from API: %w", err), geolocate.PositionUnavailable)
	}

	var acc float64
	switch loc := result.Location; {
	case loc.ZipCode != "":
		acc = geolocate.AccuracyZip
	case loc.City != "":
		acc = geolocate.AccuracyCity
	case loc.Region != "":
		acc = geolocate.AccuracyRegion
	case loc.CountryCode != "":
		acc = geolocate.AccuracyCountry
	default:
		return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name, ErrNoLocation)
	}

	lat, err := strconv.ParseFloat(result.Location.Coordinates.Latitude, 64)
	if err != nil {
		return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name,
			fmt.Errorf("failed to parse latitude from API response: %w", err))
	}
	lon, err := strconv.ParseFloat(result.Location.Coordinates.Longitude, 64)
	if err != nil {
		return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name,
			fmt.Errorf("failed to parse longitude from API response: %w", err))
	}

	return geolocate.Fix{
		Coordinate: geo.Coordinate{
			Lat: geo.Truncate(lat, geo.TruncPrecision),
			Lon: geo.Truncate(lon, geo.TruncPrecision),
		},
		AccuracyMeters: acc,
		Source:         p.name,
	}, nil
}
