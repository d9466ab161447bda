// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocode converts between coordinates and human-readable addresses.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/fides-app/fides-places/internal/geo"
)

// ErrNotFound is returned by callers that require a lookup to succeed.
var ErrNotFound = errors.New("address not found")

type Address struct {
	AddressFound bool
	CacheHit     bool
	Latitude     float64
	Longitude    float64
	DisplayName  string
	Country      string
	State        string
	Municipality string
	CityDistrict string
	Postcode     string
	City         string
	Suburb       string
	Street       string
	HouseNumber  string
}

// Location is the result of a forward lookup.
type Location struct {
	geo.Coordinate
	Found    bool
	CacheHit bool
}

type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, coords geo.Coordinate) (Address, error)
	Search(ctx context.Context, address string) (Location, error)
}

// Short returns a compact one-line address ("street, number - suburb, city"). It falls back
// to the display name if the structured parts are missing.
func (a Address) Short() string {
	line := a.Street
	if line != "" && a.HouseNumber != "" {
		line += ", " + a.HouseNumber
	}
	if a.Suburb != "" {
		line = join(line, a.Suburb, " - ")
	}
	if a.City != "" {
		line = join(line, a.City, ", ")
	}
	if strings.TrimSpace(line) == "" {
		return a.DisplayName
	}
	return line
}

func join(head, tail, sep string) string {
	if head == "" {
		return tail
	}
	return head + sep + tail
}
