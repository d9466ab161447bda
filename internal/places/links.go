// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"fmt"
	"strconv"
)

// Share is the payload handed to a share dialog or messenger.
type Share struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// DirectionsURL returns a Google Maps route to the place.
func DirectionsURL(p Place) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%s,%s",
		formatFloat(p.Coordinate.Lat), formatFloat(p.Coordinate.Lon))
}

// MapURL returns an OpenStreetMap link centered on the place.
func MapURL(p Place) string {
	lat, lon := formatFloat(p.Coordinate.Lat), formatFloat(p.Coordinate.Lon)
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%s&mlon=%s#map=18/%s/%s", lat, lon, lat, lon)
}

func SharePayload(p Place) Share {
	return Share{
		Title: p.Name,
		Text:  p.Name + "\n" + p.Address,
		URL:   MapURL(p),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
