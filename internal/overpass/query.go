// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package overpass

import (
	"fmt"
	"strings"

	"github.com/fides-app/fides-places/internal/geo"
)

// QueryTimeout is the server side timeout in seconds that every query carries.
const QueryTimeout = 25

// NameKeywords is the case-insensitive name pattern used by TierByName.
const NameKeywords = "igreja|paróquia|catedral|capela|church"

// Tier is one step of the search cascade. Tiers are ordered from the narrowest to the
// broadest filter.
type Tier int

const (
	TierCatholic Tier = iota
	TierChristian
	TierAll
	TierByName
)

var tierNames = map[Tier]string{
	TierCatholic:  "catholic",
	TierChristian: "christian",
	TierAll:       "all",
	TierByName:    "byName",
}

// Tiers returns the tiers in cascade order.
func Tiers() []Tier {
	return []Tier{TierCatholic, TierChristian, TierAll, TierByName}
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// filter returns the tag filter of the tier.
func (t Tier) filter() string {
	const worship = `["amenity"="place_of_worship"]`
	switch t {
	case TierCatholic:
		return worship + `["religion"="christian"]["denomination"="catholic"]`
	case TierChristian:
		return worship + `["religion"="christian"]`
	case TierByName:
		return worship + `["name"~"` + NameKeywords + `",i]`
	default:
		return worship
	}
}

// BuildQuery returns the Overpass QL query for the given tier around origin. The query
// returns nodes, ways and relations, followed by the member nodes of the ways so that way
// centroids can be computed from the same payload.
func BuildQuery(origin geo.Coordinate, radiusMeters int, tier Tier) string {
	around := fmt.Sprintf("(around:%d,%.6f,%.6f)", radiusMeters, origin.Lat, origin.Lon)
	filter := tier.filter()

	var sb strings.Builder
	fmt.Fprintf(&sb, "[out:json][timeout:%d];\n(\n", QueryTimeout)
	for _, elem := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&sb, "  %s%s%s;\n", elem, filter, around)
	}
	sb.WriteString(");\nout body;\n>;\nout skel qt;")
	return sb.String()
}
