// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geolocate"
	"github.com/fides-app/fides-places/internal/http"
)

const (
	APIEndpoint   = "https://reallyfreegeoip.org/json/"
	LookupTimeout = time.Second * 5
	name          = "geoip"
)

var ErrNoLocation = errors.New("GeoIP API returned no location for this address")

type GeolocationGeoIPProvider struct {
	name     string
	endpoint string
	http     *http.Client
}

type APIResult struct {
	IP          string  `json:"ip"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country_name"`
	RegionCode  string  `json:"region_code,omitempty"`
	Region      string  `json:"region_name,omitempty"`
	City        string  `json:"city,omitempty"`
	ZipCode     string  `json:"zip_code,omitempty"`
	TimeZone    string  `json:"time_zone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	MetroCode   int     `json:"metro_code"`
}

func NewGeolocationGeoIPProvider(http *http.Client) *GeolocationGeoIPProvider {
	return &GeolocationGeoIPProvider{
		name:     name,
		endpoint: APIEndpoint,
		http:     http,
	}
}

func (p *GeolocationGeoIPProvider) Name() string {
	return p.name
}

// Locate resolves the public IP address of the host to a coarse position. The accuracy
// reflects the most detailed field the API filled in.
func (p *GeolocationGeoIPProvider) Locate(ctx context.Context) (geolocate.Fix, error) {
	ctxHttp, cancelHttp := context.WithTimeout(ctx, LookupTimeout)
	defer cancelHttp()

	result := new(APIResult)
	if _, err := p.http.Get(ctxHttp, p.endpoint, result, nil, nil); err != nil {
		return geolocate.Fix{}, geolocate.FromContext(p.name,
			fmt.Errorf("failed to get geolocation data from API: %w", err), geolocate.PositionUnavailable)
	}

	acc := float64(geolocate.AccuracyUnknown)
	if result.CountryCode != "" {
		acc = geolocate.AccuracyCountry
	}
	if result.RegionCode != "" {
		acc = geolocate.AccuracyRegion
	}
	if result.City != "" {
		acc = geolocate.AccuracyCity
	}
	if result.ZipCode != "" {
		acc = geolocate.AccuracyZip
	}
	if acc == geolocate.AccuracyUnknown {
		return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name, ErrNoLocation)
	}

	return geolocate.Fix{
		Coordinate: geo.Coordinate{
			Lat: geo.Truncate(result.Latitude, geo.TruncPrecision),
			Lon: geo.Truncate(result.Longitude, geo.TruncPrecision),
		},
		AccuracyMeters: acc,
		Source:         p.name,
	}, nil
}
