// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geocode"
	"github.com/fides-app/fides-places/internal/geolocate"
	"github.com/fides-app/fides-places/internal/overpass"
)

const (
	saoPauloFile = "../../testdata/overpass_saopaulo_catholic.json"
	emptyFile    = "../../testdata/overpass_empty.json"
	mixedFile    = "../../testdata/overpass_mixed.json"
	squareFile   = "../../testdata/overpass_way_square.json"
)

var saoPaulo = geo.Coordinate{Lat: -23.5505, Lon: -46.6333}

// mockFetcher answers the n-th query with the n-th response. Queries beyond the list get an
// empty response.
type mockFetcher struct {
	mu        sync.Mutex
	responses []*overpass.Response
	errs      []error
	queries   []string
}

func (m *mockFetcher) Query(_ context.Context, query string) (*overpass.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.queries)
	m.queries = append(m.queries, query)
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return &overpass.Response{Elements: []overpass.Element{}}, nil
}

func (m *mockFetcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// mockCoder answers every reverse lookup with a street address, unless fail is set.
type mockCoder struct {
	mu       sync.Mutex
	calls    int
	fail     bool
	notFound bool
}

func (c *mockCoder) Name() string { return "mock" }

func (c *mockCoder) Reverse(_ context.Context, coords geo.Coordinate) (geocode.Address, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.fail {
		return geocode.Address{}, errors.New("lookup intentionally failed")
	}
	if c.notFound {
		return geocode.Address{Latitude: coords.Lat, Longitude: coords.Lon}, nil
	}
	return geocode.Address{
		AddressFound: true,
		Latitude:     coords.Lat,
		Longitude:    coords.Lon,
		Street:       "Praça da Sé",
		Suburb:       "Sé",
		City:         "São Paulo",
	}, nil
}

func (c *mockCoder) Search(context.Context, string) (geocode.Location, error) {
	return geocode.Location{}, nil
}

func (c *mockCoder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type mockLocator struct {
	fix   geolocate.Fix
	err   error
	calls int
}

func (m *mockLocator) Locate(context.Context) (geolocate.Fix, error) {
	m.calls++
	return m.fix, m.err
}

func loadResponse(t *testing.T, file string) *overpass.Response {
	t.Helper()
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read fixture: %s", err)
	}
	resp := new(overpass.Response)
	if err = json.Unmarshal(data, resp); err != nil {
		t.Fatalf("failed to decode fixture: %s", err)
	}
	return resp
}
