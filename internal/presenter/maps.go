// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"github.com/vorlif/spreak/localize"

	"github.com/fides-app/fides-places/internal/geolocate"
)

const (
	titleNear    localize.MsgID = "Places of worship near %s"
	nothingFound localize.MsgID = "No places of worship found within %s of %s."
	searchFailed localize.MsgID = "The search for places of worship failed. Please try again later."
	noAddress    localize.MsgID = "The given address could not be found."
)

// i18nVars maps the label keys usable in templates to their message IDs.
var i18nVars = map[string]localize.MsgID{
	"name":         "Name",
	"distance":     "Distance",
	"address":      "Address",
	"denomination": "Denomination",
	"schedule":     "Schedule",
}

var locationMessages = map[geolocate.Kind]localize.MsgID{
	geolocate.PermissionDenied:    "Location access was denied. Allow location access or pass -lat and -lon.",
	geolocate.PositionUnavailable: "Your position is currently unavailable.",
	geolocate.Timeout:             "Locating your position timed out.",
	geolocate.Unsupported:         "Geolocation is not supported on this system. Pass -lat and -lon or -address.",
}
