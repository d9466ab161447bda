// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/fides-app/fides-places/internal/geo"
)

const (
	testHitTTL  = 200 * time.Millisecond
	testMissTTL = 200 * time.Millisecond
)

var testCoords = geo.Coordinate{Lat: -23.5505, Lon: -46.6333}

var testAddress = Address{
	DisplayName:  "Catedral da Sé, Praça da Sé, Sé, São Paulo, Região Metropolitana de São Paulo, 01001-000, Brasil",
	Country:      "Brasil",
	State:        "São Paulo",
	Municipality: "São Paulo",
	CityDistrict: "Sé",
	Postcode:     "01001-000",
	City:         "São Paulo",
	Suburb:       "Sé",
	Street:       "Praça da Sé",
}

type mockCoder struct {
	reverseCalls int
	searchCalls  int
}

func (c *mockCoder) Name() string { return "mock" }

func (c *mockCoder) Reverse(_ context.Context, coords geo.Coordinate) (Address, error) {
	c.reverseCalls++
	addr := testAddress
	addr.Latitude = coords.Lat
	addr.Longitude = coords.Lon
	if coords.Lat == testCoords.Lat && coords.Lon == testCoords.Lon {
		addr.AddressFound = true
	}
	if coords.Lat == 1 && coords.Lon == -1 {
		return addr, errors.New("lookup intentionally failed")
	}
	return addr, nil
}

func (c *mockCoder) Search(_ context.Context, address string) (Location, error) {
	c.searchCalls++
	loc := Location{Coordinate: testCoords}
	if strings.Contains(address, "01001-000") {
		loc.Found = true
	}
	if address == "invalid" {
		return Location{}, errors.New("lookup intentionally failed")
	}
	return loc, nil
}

func TestNewCachedGeocoder(t *testing.T) {
	t.Run("a new geocoder should be returned", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		if coder == nil {
			t.Fatal("expected a non-nil geocoder")
		}
		if coder.Name() != "geocoder cache using mock" {
			t.Errorf("expected geocoder name to be 'geocoder cache using mock', got %q", coder.Name())
		}
	})
}

func TestCachedGeocoder_Cached(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		inner := &mockCoder{}
		coder := NewCachedGeocoder(inner, testHitTTL, testMissTTL)
		if _, ok := coder.Cached(testCoords); ok {
			t.Fatal("expected empty cache to miss")
		}
		if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
			t.Fatal(err)
		}
		addr, ok := coder.Cached(testCoords)
		if !ok || !addr.CacheHit || addr.Street != testAddress.Street {
			t.Errorf("expected cached address, got %+v (ok=%t)", addr, ok)
		}
		time.Sleep(testHitTTL)
		if _, ok = coder.Cached(testCoords); ok {
			t.Error("expected expired entry to miss")
		}
		if inner.reverseCalls != 1 {
			t.Errorf("expected a single provider request, got %d", inner.reverseCalls)
		}
	})
}

func TestCachedGeocoder_Reverse(t *testing.T) {
	t.Run("a cached address should be returned", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		addr, err := coder.Reverse(t.Context(), testCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.AddressFound {
			t.Fatal("expected address to be found")
		}
		if addr.CacheHit {
			t.Fatal("expected cache miss")
		}
		if addr.DisplayName != testAddress.DisplayName {
			t.Errorf("expected address to be %q, got %q", testAddress.DisplayName, addr.DisplayName)
		}
	})
	t.Run("fetching results twice should hit the cache", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)
		if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
			t.Fatal(err)
		}
		addr, err := coder.Reverse(t.Context(), testCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.CacheHit {
			t.Error("expected cached result")
		}
		if mock.reverseCalls != 1 {
			t.Errorf("expected 1 upstream call, got %d", mock.reverseCalls)
		}
	})
	t.Run("fetching a very close coordinate should still hit the cache", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
			t.Fatal(err)
		}
		addr, err := coder.Reverse(t.Context(), geo.Coordinate{Lat: testCoords.Lat + 0.00002, Lon: testCoords.Lon - 0.00002})
		if err != nil {
			t.Fatal(err)
		}
		if !addr.CacheHit {
			t.Error("expected cached result")
		}
	})
	t.Run("a neighbouring church should not share the cached address", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)
		if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
			t.Fatal(err)
		}
		addr, err := coder.Reverse(t.Context(), geo.Coordinate{Lat: testCoords.Lat + 0.002, Lon: testCoords.Lon})
		if err != nil {
			t.Fatal(err)
		}
		if addr.CacheHit {
			t.Error("expected cache miss")
		}
		if mock.reverseCalls != 2 {
			t.Errorf("expected 2 upstream calls, got %d", mock.reverseCalls)
		}
	})
	t.Run("fetching an unknown address causes a cache miss", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		addr, err := coder.Reverse(t.Context(), geo.Coordinate{Lat: 2, Lon: -2})
		if err != nil {
			t.Fatal(err)
		}
		if addr.AddressFound {
			t.Fatal("expected address to be not found")
		}
		if addr.CacheHit {
			t.Error("expected cache miss")
		}
	})
	t.Run("fetching fails during lookup should return an error", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)
		if _, err := coder.Reverse(t.Context(), geo.Coordinate{Lat: 1, Lon: -1}); err == nil {
			t.Fatal("expected an error")
		}
		if _, err := coder.Reverse(t.Context(), geo.Coordinate{Lat: 1, Lon: -1}); err == nil {
			t.Fatal("expected failed lookups to not be cached")
		}
		if mock.reverseCalls != 2 {
			t.Errorf("expected 2 upstream calls, got %d", mock.reverseCalls)
		}
	})
	t.Run("cache should not trigger on expired TTL", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
			if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
				t.Fatal(err)
			}
			time.Sleep(testHitTTL * 2)
			addr, err := coder.Reverse(t.Context(), testCoords)
			if err != nil {
				t.Fatal(err)
			}
			if addr.CacheHit {
				t.Error("expected cache miss")
			}
		})
	})
	t.Run("cache should hit on non-expired TTL", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
			if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
				t.Fatal(err)
			}
			time.Sleep(testHitTTL - 5*time.Millisecond)
			addr, err := coder.Reverse(t.Context(), testCoords)
			if err != nil {
				t.Fatal(err)
			}
			if !addr.CacheHit {
				t.Error("expected cache hit")
			}
		})
	})
}

func TestCachedGeocoder_Search(t *testing.T) {
	t.Run("cached coordinates should be returned", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		loc, err := coder.Search(t.Context(), "Praça da Sé, 01001-000 São Paulo")
		if err != nil {
			t.Fatal(err)
		}
		if !loc.Found {
			t.Fatal("expected coordinates to be found")
		}
		if loc.CacheHit {
			t.Fatal("expected cache miss")
		}
		if loc.Lat != testCoords.Lat || loc.Lon != testCoords.Lon {
			t.Errorf("expected coordinates %s, got %s", testCoords, loc.Coordinate)
		}
	})
	t.Run("searching twice with different spelling should hit the cache", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)
		if _, err := coder.Search(t.Context(), "Praça da Sé, 01001-000 São Paulo"); err != nil {
			t.Fatal(err)
		}
		loc, err := coder.Search(t.Context(), "  PRAÇA DA SÉ, 01001-000 SÃO PAULO ")
		if err != nil {
			t.Fatal(err)
		}
		if !loc.CacheHit {
			t.Error("expected cached result")
		}
		if mock.searchCalls != 1 {
			t.Errorf("expected 1 upstream call, got %d", mock.searchCalls)
		}
	})
	t.Run("fetching fails during lookup should return an error", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		if _, err := coder.Search(t.Context(), "invalid"); err == nil {
			t.Fatal("expected an error")
		}
	})
	t.Run("cache should not trigger on expired TTL", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
			if _, err := coder.Search(t.Context(), testAddress.DisplayName); err != nil {
				t.Fatal(err)
			}
			time.Sleep(testHitTTL * 2)
			loc, err := coder.Search(t.Context(), testAddress.DisplayName)
			if err != nil {
				t.Fatal(err)
			}
			if loc.CacheHit {
				t.Error("expected cache miss")
			}
		})
	})
}

func TestAddress_Short(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{"full address", Address{Street: "Praça da Sé", HouseNumber: "1", Suburb: "Sé", City: "São Paulo"}, "Praça da Sé, 1 - Sé, São Paulo"},
		{"without number", testAddress, "Praça da Sé - Sé, São Paulo"},
		{"city only", Address{City: "São Paulo"}, "São Paulo"},
		{"display name fallback", Address{DisplayName: "Somewhere"}, "Somewhere"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.addr.Short(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
