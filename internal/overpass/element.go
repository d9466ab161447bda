// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package overpass

import "github.com/fides-app/fides-places/internal/geo"

// OSM element types as reported by the Overpass API.
const (
	TypeNode     = "node"
	TypeWay      = "way"
	TypeRelation = "relation"
)

// Response is the JSON document returned by the Overpass API.
type Response struct {
	Version   float64   `json:"version"`
	Generator string    `json:"generator"`
	Remark    string    `json:"remark,omitempty"`
	Elements  []Element `json:"elements"`
}

// Element is a raw OSM node, way or relation.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *LatLon           `json:"center,omitempty"`
	Nodes  []int64           `json:"nodes,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// LatLon is the center point that Overpass adds to ways and relations for "out center".
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Coordinate returns the position of a node. It returns false if the element carries no
// coordinates.
func (e Element) Coordinate() (geo.Coordinate, bool) {
	if e.Lat == nil || e.Lon == nil {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: *e.Lat, Lon: *e.Lon}, true
}

// Tag returns the first non-empty value of the given tag keys.
func (e Element) Tag(keys ...string) string {
	for _, key := range keys {
		if val := e.Tags[key]; val != "" {
			return val
		}
	}
	return ""
}
