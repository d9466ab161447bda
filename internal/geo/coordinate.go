// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo holds the coordinate type and the distance math shared by the search components.
package geo

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const (
	EarthRadius    = 6371000.0 // meters
	TruncPrecision = 4
)

// Coordinate represents a geographic coordinate in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Valid checks if the coordinate is valid according to the EPSG logic
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// String returns the coordinate as "lat,lon" with six decimal places.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Distance returns the great-circle distance in meters between a and b using the Haversine
// formula.
func Distance(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FormatDistance renders a distance in meters for display. Values below one kilometer are
// rounded to whole meters, everything else is shown in kilometers with one decimal.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int64(math.Round(meters)))
	}
	return FormatFixed(meters/1000, 1) + " km"
}

// Centroid returns the arithmetic mean of the given coordinates. It returns false if no
// coordinates were given.
func Centroid(coords []Coordinate) (Coordinate, bool) {
	if len(coords) == 0 {
		return Coordinate{}, false
	}
	var lat, lon float64
	for _, c := range coords {
		lat += c.Lat
		lon += c.Lon
	}
	n := float64(len(coords))
	return Coordinate{Lat: lat / n, Lon: lon / n}, true
}

// Truncate cuts x after the given number of decimal places.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}

// FormatFixed formats x with the given number of decimals. Unlike the fmt verbs, a value
// exactly halfway between two results is rounded away from zero (1.25 becomes "1.3").
func FormatFixed(x float64, decimals int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) || decimals < 0 {
		return strconv.FormatFloat(x, 'f', decimals, 64)
	}

	// 256 bits keep the scaled value exact.
	const prec = 256
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	scaled := new(big.Float).SetPrec(prec).SetFloat64(math.Abs(x))
	scaled.Mul(scaled, new(big.Float).SetPrec(prec).SetInt(scale))

	digits, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(prec).Sub(scaled, new(big.Float).SetPrec(prec).SetInt(digits))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		digits.Add(digits, big.NewInt(1))
	}

	s := digits.String()
	if decimals > 0 {
		if len(s) <= decimals {
			s = strings.Repeat("0", decimals-len(s)+1) + s
		}
		s = s[:len(s)-decimals] + "." + s[len(s)-decimals:]
	}
	if math.Signbit(x) {
		s = "-" + s
	}
	return s
}
