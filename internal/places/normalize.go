// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/overpass"
)

// Normalize converts the raw elements of an Overpass response into places, in payload order.
// Elements that are not tagged as a place of worship, have no name or have no resolvable
// position are dropped.
func Normalize(resp *overpass.Response, origin geo.Coordinate) []Place {
	if resp == nil {
		return []Place{}
	}

	nodes := make(map[int64]geo.Coordinate)
	for _, elem := range resp.Elements {
		if elem.Type != overpass.TypeNode {
			continue
		}
		if coord, ok := elem.Coordinate(); ok {
			nodes[elem.ID] = coord
		}
	}

	places := make([]Place, 0, len(resp.Elements))
	for _, elem := range resp.Elements {
		if elem.Tags["amenity"] != "place_of_worship" || elem.Tags["name"] == "" {
			continue
		}
		coord, ok := position(elem, nodes)
		if !ok {
			continue
		}
		places = append(places, newPlace(elem, coord, origin))
	}
	return places
}

// SortByDistance orders places by ascending distance. Places at the same distance keep their
// relative order.
func SortByDistance(places []Place) {
	slices.SortStableFunc(places, func(a, b Place) int {
		return cmp.Compare(a.DistanceMeters, b.DistanceMeters)
	})
}

func position(elem overpass.Element, nodes map[int64]geo.Coordinate) (geo.Coordinate, bool) {
	switch elem.Type {
	case overpass.TypeNode:
		return elem.Coordinate()
	case overpass.TypeWay:
		if coord, ok := wayCentroid(elem.Nodes, nodes); ok {
			return coord, true
		}
		return center(elem)
	case overpass.TypeRelation:
		return center(elem)
	default:
		return geo.Coordinate{}, false
	}
}

// wayCentroid averages the member nodes present in the payload. Closed ways repeat their first
// node at the end, each node is counted once.
func wayCentroid(refs []int64, nodes map[int64]geo.Coordinate) (geo.Coordinate, bool) {
	seen := make(map[int64]struct{}, len(refs))
	coords := make([]geo.Coordinate, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		if coord, ok := nodes[ref]; ok {
			coords = append(coords, coord)
		}
	}
	return geo.Centroid(coords)
}

func center(elem overpass.Element) (geo.Coordinate, bool) {
	if elem.Center == nil {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: elem.Center.Lat, Lon: elem.Center.Lon}, true
}

func newPlace(elem overpass.Element, coord, origin geo.Coordinate) Place {
	distance := geo.Distance(origin, coord)
	return Place{
		ID:                fmt.Sprintf("osm-%s-%d", elem.Type, elem.ID),
		Name:              elem.Tags["name"],
		Address:           formatAddress(elem),
		Coordinate:        coord,
		DistanceMeters:    distance,
		DistanceFormatted: geo.FormatDistance(distance),
		Denomination:      elem.Tag("denomination"),
		Website:           elem.Tag("website", "contact:website"),
		Phone:             elem.Tag("phone", "contact:phone"),
		Schedule:          elem.Tag("service_times", "opening_hours"),
		Description:       elem.Tag("description"),
		Parish:            elem.Tag("parish", "operator"),
	}
}

// formatAddress renders "street, number - suburb, city - postcode" from the addr:* tags.
func formatAddress(elem overpass.Element) string {
	line := elem.Tag("addr:street")
	if number := elem.Tag("addr:housenumber"); number != "" {
		line = join(line, number, ", ")
	}
	line = join(line, elem.Tag("addr:suburb"), " - ")
	line = join(line, elem.Tag("addr:city"), ", ")
	line = join(line, elem.Tag("addr:postcode"), " - ")
	if line == "" {
		return AddressUnavailable
	}
	return line
}

func join(head, tail, sep string) string {
	switch {
	case tail == "":
		return head
	case head == "":
		return tail
	default:
		return head + sep + tail
	}
}
