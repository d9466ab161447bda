// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/text/language"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geocode"
	"github.com/fides-app/fides-places/internal/http"
)

const (
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

type OpenCage struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

type Result struct {
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
	Geometry    Geometry   `json:"geometry"`
}

type Components struct {
	NormalizedCity string `json:"_normalized_city"`
	City           string `json:"city"`
	CityDistrict   string `json:"city_district"`
	Country        string `json:"country"`
	HouseNumber    string `json:"house_number"`
	Municipality   string `json:"municipality"`
	Postcode       string `json:"postcode"`
	Road           string `json:"road"`
	State          string `json:"state"`
	Suburb         string `json:"suburb"`
	Town           string `json:"town"`
	Village        string `json:"village"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func New(client *http.Client, lang language.Tag, apikey string) *OpenCage {
	return &OpenCage{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}
}

func (o *OpenCage) Name() string {
	return name
}

func (o *OpenCage) Reverse(ctx context.Context, coords geo.Coordinate) (geocode.Address, error) {
	response, err := o.query(ctx, fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if response.TotalResults == 0 {
		return geocode.Address{Latitude: coords.Lat, Longitude: coords.Lon}, nil
	}
	if response.TotalResults != 1 || len(response.Results) != 1 {
		return geocode.Address{}, fmt.Errorf("ambiguous amount of results returned for coordinates: %d",
			response.TotalResults)
	}

	result := response.Results[0]
	address := geocode.Address{
		AddressFound: true,
		Latitude:     result.Geometry.Lat,
		Longitude:    result.Geometry.Lon,
		DisplayName:  result.DisplayName,
		Country:      result.Components.Country,
		State:        result.Components.State,
		Municipality: result.Components.Municipality,
		CityDistrict: result.Components.CityDistrict,
		Postcode:     result.Components.Postcode,
		City:         result.Components.NormalizedCity,
		Suburb:       result.Components.Suburb,
		Street:       result.Components.Road,
		HouseNumber:  result.Components.HouseNumber,
	}
	if address.City == "" {
		address.City = result.Components.City
	}
	if result.Components.Town != "" {
		address.City = result.Components.Town
	}
	if result.Components.Village != "" {
		address.City = result.Components.Village
	}

	return address, nil
}

func (o *OpenCage) Search(ctx context.Context, address string) (geocode.Location, error) {
	response, err := o.query(ctx, address)
	if err != nil {
		return geocode.Location{}, fmt.Errorf("failed to retrieve coordinates from OpenCage API: %w", err)
	}
	if len(response.Results) == 0 {
		return geocode.Location{}, nil
	}
	geometry := response.Results[0].Geometry
	return geocode.Location{
		Coordinate: geo.Coordinate{Lat: geometry.Lat, Lon: geometry.Lon},
		Found:      true,
	}, nil
}

func (o *OpenCage) query(ctx context.Context, q string) (Response, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", q)
	query.Set("limit", "1")
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", o.lang.String())

	_, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout)
	return response, err
}
