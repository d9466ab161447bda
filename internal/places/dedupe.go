// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"strings"

	"github.com/fides-app/fides-places/internal/geo"
)

// Dedupe keeps the first place per lowercased name and coordinate rounded to four decimals.
// Order is preserved.
func Dedupe(places []Place) []Place {
	seen := make(map[string]struct{}, len(places))
	unique := make([]Place, 0, len(places))
	for _, place := range places {
		key := dedupeKey(place)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, place)
	}
	return unique
}

func dedupeKey(p Place) string {
	return strings.ToLower(p.Name) + "-" + geo.FormatFixed(p.Coordinate.Lat, 4) + "-" +
		geo.FormatFixed(p.Coordinate.Lon, 4)
}
