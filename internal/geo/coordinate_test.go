// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"math"
	"testing"
)

const tolerance = 1e-6

var (
	saoPaulo   = Coordinate{Lat: -23.5505, Lon: -46.6333}
	rio        = Coordinate{Lat: -22.9068, Lon: -43.1729}
	berlin     = Coordinate{Lat: 52.5129, Lon: 13.3910}
	nullIsland = Coordinate{}
)

func TestDistance(t *testing.T) {
	t.Run("distance to itself is zero", func(t *testing.T) {
		for _, c := range []Coordinate{saoPaulo, rio, berlin, nullIsland, {Lat: 90, Lon: 180}} {
			if d := Distance(c, c); d != 0 {
				t.Errorf("expected distance of %s to itself to be 0, got %f", c, d)
			}
		}
	})
	t.Run("distance is symmetric", func(t *testing.T) {
		pairs := [][2]Coordinate{{saoPaulo, rio}, {berlin, saoPaulo}, {nullIsland, berlin}}
		for _, p := range pairs {
			ab, ba := Distance(p[0], p[1]), Distance(p[1], p[0])
			if math.Abs(ab-ba) > tolerance {
				t.Errorf("expected symmetric distance, got %f and %f", ab, ba)
			}
		}
	})
	t.Run("known distance between São Paulo and Rio de Janeiro", func(t *testing.T) {
		d := Distance(saoPaulo, rio)
		if d < 355000 || d > 362000 {
			t.Errorf("expected distance of about 358 km, got %f", d)
		}
	})
	t.Run("one degree of latitude", func(t *testing.T) {
		d := Distance(nullIsland, Coordinate{Lat: 1})
		want := EarthRadius * math.Pi / 180
		if math.Abs(d-want) > 0.001 {
			t.Errorf("expected distance %f, got %f", want, d)
		}
	})
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		name   string
		meters float64
		want   string
	}{
		{"zero", 0, "0 m"},
		{"rounds down", 12.4, "12 m"},
		{"rounds up", 12.5, "13 m"},
		{"below one kilometer", 999.4, "999 m"},
		{"exactly one kilometer", 1000, "1.0 km"},
		{"one point two kilometers", 1200, "1.2 km"},
		{"many kilometers", 15649, "15.6 km"},
		{"halfway rounds up", 1250, "1.3 km"},
		{"halfway above ten kilometers", 12750, "12.8 km"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatDistance(tc.meters); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatFixed(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		decimals int
		want     string
	}{
		{"zero", 0, 4, "0.0000"},
		{"no decimals", 2.5, 0, "3"},
		{"exact binary tie rounds up", 1.25, 1, "1.3"},
		{"exact binary tie at four decimals", 0.03125, 4, "0.0313"},
		{"below the tie rounds down", 1.005, 2, "1.00"},
		{"regular rounding", -23.55052, 4, "-23.5505"},
		{"negative tie rounds away from zero", -46.625, 2, "-46.63"},
		{"padding of small values", 0.0004, 4, "0.0004"},
		{"negative zero result keeps the sign", -0.00001, 4, "-0.0000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatFixed(tc.x, tc.decimals); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCentroid(t *testing.T) {
	t.Run("square around null island", func(t *testing.T) {
		square := []Coordinate{
			{Lat: 0.5, Lon: 0.5}, {Lat: 0.5, Lon: -0.5},
			{Lat: -0.5, Lon: -0.5}, {Lat: -0.5, Lon: 0.5},
		}
		c, ok := Centroid(square)
		if !ok {
			t.Fatal("expected centroid to be found")
		}
		if math.Abs(c.Lat) > tolerance || math.Abs(c.Lon) > tolerance {
			t.Errorf("expected centroid near 0,0, got %s", c)
		}
	})
	t.Run("no coordinates", func(t *testing.T) {
		if _, ok := Centroid(nil); ok {
			t.Error("expected no centroid for empty input")
		}
	})
}

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		valid bool
	}{
		{"são paulo", saoPaulo, true},
		{"bounds", Coordinate{Lat: -90, Lon: 180}, true},
		{"latitude too high", Coordinate{Lat: 90.1}, false},
		{"longitude too low", Coordinate{Lon: -180.1}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.coord.Valid() != tc.valid {
				t.Errorf("expected valid to be %t for %s", tc.valid, tc.coord)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate(-23.550598, TruncPrecision); got != -23.5505 {
		t.Errorf("expected -23.5505, got %f", got)
	}
}
