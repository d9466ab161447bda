// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/places"
)

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":  timeFormat,
		"floatFormat": floatFormat,
		"distance":    geo.FormatDistance,
		"directions":  directions,
		"pad":         pad,
		"loc":         p.loc,
		"lc":          strings.ToLower,
		"uc":          strings.ToUpper,
	}
}

func (p *Presenter) loc(val string) string {
	val = strings.ToLower(val)
	if raw, ok := i18nVars[val]; ok {
		return p.localizer.Get(raw)
	}
	return val
}

func timeFormat(val time.Time, fmt string) string {
	return val.Format(fmt)
}

func floatFormat(val float64, precision int) string {
	pow := math.Pow(10, float64(precision))
	return fmt.Sprintf("%.*f", precision, math.Trunc(val*pow)/pow)
}

func directions(view PlaceView) string {
	return places.DirectionsURL(view.Place)
}

// pad fills val with spaces up to the given display width, truncating longer values.
func pad(width int, val string) string {
	if runewidth.StringWidth(val) > width {
		val = runewidth.Truncate(val, width, "…")
	}
	return runewidth.FillRight(val, width)
}
