// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package places finds places of worship around a coordinate using OpenStreetMap data.
package places

import (
	"github.com/fides-app/fides-places/internal/geo"
)

// AddressUnavailable is the address of a place without structured address tags. The Enricher
// replaces it with a reverse geocoded address where possible.
const AddressUnavailable = "Endereço não disponível"

// Place is a single place of worship.
type Place struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Address           string         `json:"address"`
	Coordinate        geo.Coordinate `json:"coordinate"`
	DistanceMeters    float64        `json:"distance_meters"`
	DistanceFormatted string         `json:"distance_formatted"`
	Denomination      string         `json:"denomination,omitempty"`
	Website           string         `json:"website,omitempty"`
	Phone             string         `json:"phone,omitempty"`
	Schedule          string         `json:"schedule,omitempty"`
	Description       string         `json:"description,omitempty"`
	Parish            string         `json:"parish,omitempty"`
}

// HasAddress reports whether the place carries a real address.
func (p Place) HasAddress() bool {
	return p.Address != "" && p.Address != AddressUnavailable
}
