// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cityname_file

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geocode"
	"github.com/fides-app/fides-places/internal/geolocate"
)

const (
	testFile      = "../../../../testdata/cityname"
	testFileEmpty = "../../../../testdata/cityname_empty"
)

var saoPaulo = geo.Coordinate{Lat: -23.5505, Lon: -46.6333}

func TestNewCitynameFileProvider(t *testing.T) {
	t.Run("new cityname file provider succeeds", func(t *testing.T) {
		provider, err := NewCitynameFileProvider(testFile, &mockGeocoder{})
		if err != nil {
			t.Fatalf("failed to create cityname file provider: %s", err)
		}
		if !strings.EqualFold(provider.Name(), name) {
			t.Errorf("expected provider name to be %s, got %s", name, provider.Name())
		}
	})
	t.Run("cityname file provider without geocoder fails", func(t *testing.T) {
		if _, err := NewCitynameFileProvider(testFile, nil); err == nil {
			t.Fatal("expected provider to fail")
		}
	})
}

func TestCitynameFileProvider_Locate(t *testing.T) {
	t.Run("first known city name wins", func(t *testing.T) {
		coder := &mockGeocoder{}
		provider, err := NewCitynameFileProvider(testFile, coder)
		if err != nil {
			t.Fatal(err)
		}
		fix, err := provider.Locate(t.Context())
		if err != nil {
			t.Fatalf("failed to locate: %s", err)
		}
		if fix.Coordinate != saoPaulo {
			t.Errorf("expected coordinates to be %s, got %s", saoPaulo, fix.Coordinate)
		}
		if fix.AccuracyMeters != geolocate.AccuracyCity {
			t.Errorf("expected accuracy to be %d, got %f", geolocate.AccuracyCity, fix.AccuracyMeters)
		}
		if fix.Source != name {
			t.Errorf("expected source to be %s, got %s", name, fix.Source)
		}
		want := []string{"Atlantis", "São Paulo, SP"}
		if strings.Join(coder.queries, "|") != strings.Join(want, "|") {
			t.Errorf("expected queries %q, got %q", want, coder.queries)
		}
	})
	t.Run("missing file is unsupported", func(t *testing.T) {
		provider, _ := NewCitynameFileProvider("non-existent", &mockGeocoder{})
		if _, err := provider.Locate(t.Context()); !errors.Is(err, geolocate.ErrUnsupported) {
			t.Errorf("expected unsupported error, got %v", err)
		}
	})
	t.Run("empty path is unsupported", func(t *testing.T) {
		provider, _ := NewCitynameFileProvider("", &mockGeocoder{})
		if _, err := provider.Locate(t.Context()); !errors.Is(err, geolocate.ErrUnsupported) {
			t.Errorf("expected unsupported error, got %v", err)
		}
	})
	t.Run("file without names is position unavailable", func(t *testing.T) {
		provider, _ := NewCitynameFileProvider(testFileEmpty, &mockGeocoder{})
		_, err := provider.Locate(t.Context())
		if !errors.Is(err, ErrNoCoordinates) || !errors.Is(err, geolocate.ErrPositionUnavailable) {
			t.Errorf("expected position unavailable error, got %v", err)
		}
	})
	t.Run("geocoder failure is position unavailable", func(t *testing.T) {
		provider, _ := NewCitynameFileProvider(testFile, &mockGeocoder{fail: true})
		if _, err := provider.Locate(t.Context()); !errors.Is(err, geolocate.ErrPositionUnavailable) {
			t.Errorf("expected position unavailable error, got %v", err)
		}
	})
	t.Run("canceled context is a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		provider, _ := NewCitynameFileProvider(testFile, &mockGeocoder{})
		if _, err := provider.Locate(ctx); !errors.Is(err, geolocate.ErrTimeout) {
			t.Errorf("expected timeout error, got %v", err)
		}
	})
}

type mockGeocoder struct {
	fail    bool
	queries []string
}

func (m *mockGeocoder) Name() string { return "mock geocoder" }

func (m *mockGeocoder) Reverse(context.Context, geo.Coordinate) (geocode.Address, error) {
	return geocode.Address{}, errors.New("not implemented")
}

func (m *mockGeocoder) Search(_ context.Context, address string) (geocode.Location, error) {
	m.queries = append(m.queries, address)
	if m.fail {
		return geocode.Location{}, errors.New("intentionally failing")
	}
	if strings.HasPrefix(address, "São Paulo") {
		return geocode.Location{Coordinate: saoPaulo, Found: true}, nil
	}
	return geocode.Location{}, nil
}
