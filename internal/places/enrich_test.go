// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"context"
	"fmt"
	"testing"
	"testing/synctest"
	"time"

	"golang.org/x/time/rate"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geocode"
)

func sentinelPlaces(n int) []Place {
	places := make([]Place, n)
	for i := range places {
		places[i] = Place{
			ID:         fmt.Sprintf("osm-node-%d", i),
			Name:       fmt.Sprintf("Capela %d", i),
			Address:    AddressUnavailable,
			Coordinate: geo.Coordinate{Lat: -23.55 + float64(i)/1000, Lon: -46.63},
		}
	}
	return places
}

func TestNewEnricher(t *testing.T) {
	tests := []struct {
		name         string
		conf         EnricherConfig
		wantLimit    int
		wantInterval time.Duration
	}{
		{"defaults are clamped", EnricherConfig{}, 0, MinEnrichInterval},
		{"limit above maximum", EnricherConfig{Limit: 50, Interval: time.Second * 2}, MaxEnrichments, time.Second * 2},
		{"negative limit", EnricherConfig{Limit: -1, Interval: time.Millisecond}, 0, MinEnrichInterval},
		{"valid config", EnricherConfig{Limit: 5, Interval: MinEnrichInterval}, 5, MinEnrichInterval},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			enricher := NewEnricher(&mockCoder{}, tc.conf, nil, nil)
			if enricher.limit != tc.wantLimit {
				t.Errorf("expected limit to be %d, got %d", tc.wantLimit, enricher.limit)
			}
			if enricher.limiter.Limit() != rate.Every(tc.wantInterval) {
				t.Errorf("expected interval to be %s, got a rate of %f/s", tc.wantInterval, enricher.limiter.Limit())
			}
			if enricher.limiter.Burst() != 1 {
				t.Errorf("expected burst to be 1, got %d", enricher.limiter.Burst())
			}
		})
	}
}

func TestEnricher_Enrich(t *testing.T) {
	t.Run("never more than ten lookups", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := &mockCoder{}
			enricher := NewEnricher(coder, EnricherConfig{Limit: MaxEnrichments}, nil, nil)
			places := sentinelPlaces(25)
			enriched := enricher.Enrich(t.Context(), places)
			if coder.count() != MaxEnrichments {
				t.Errorf("expected %d lookups, got %d", MaxEnrichments, coder.count())
			}
			if enriched != MaxEnrichments {
				t.Errorf("expected %d enriched places, got %d", MaxEnrichments, enriched)
			}
			for i, place := range places {
				if i < MaxEnrichments && place.Address != "Praça da Sé - Sé, São Paulo" {
					t.Errorf("expected place %d to be enriched, got %q", i, place.Address)
				}
				if i >= MaxEnrichments && place.Address != AddressUnavailable {
					t.Errorf("expected place %d to keep the sentinel, got %q", i, place.Address)
				}
			}
		})
	})
	t.Run("lookups are spaced by the interval", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			enricher := NewEnricher(&mockCoder{}, EnricherConfig{Limit: 3}, nil, nil)
			start := time.Now()
			enricher.Enrich(t.Context(), sentinelPlaces(3))
			elapsed := time.Since(start)
			if want := 2 * MinEnrichInterval; elapsed < want {
				t.Errorf("expected three lookups to take at least %s, took %s", want, elapsed)
			}
		})
	})
	t.Run("cached addresses do not wait for the limiter", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := &mockCoder{}
			cached := geocode.NewCachedGeocoder(coder, time.Hour, time.Hour)
			enricher := NewEnricher(cached, EnricherConfig{Limit: 3}, nil, nil)
			if enriched := enricher.Enrich(t.Context(), sentinelPlaces(3)); enriched != 3 {
				t.Fatalf("expected 3 enriched places, got %d", enriched)
			}

			start := time.Now()
			places := sentinelPlaces(3)
			if enriched := enricher.Enrich(t.Context(), places); enriched != 3 {
				t.Fatalf("expected 3 enriched places from the cache, got %d", enriched)
			}
			if elapsed := time.Since(start); elapsed != 0 {
				t.Errorf("expected cached lookups to be immediate, took %s", elapsed)
			}
			if coder.calls != 3 {
				t.Errorf("expected 3 geocoder requests in total, got %d", coder.calls)
			}
			if places[2].Address == AddressUnavailable {
				t.Error("expected cached address to replace the sentinel")
			}
		})
	})
	t.Run("places with an address are skipped", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := &mockCoder{}
			enricher := NewEnricher(coder, EnricherConfig{Limit: MaxEnrichments}, nil, nil)
			places := sentinelPlaces(4)
			places[1].Address = "Rua Augusta, 10"
			places[3].Address = "Rua Oscar Freire, 20"
			enricher.Enrich(t.Context(), places)
			if coder.count() != 2 {
				t.Errorf("expected 2 lookups, got %d", coder.count())
			}
			if places[1].Address != "Rua Augusta, 10" {
				t.Errorf("expected existing address to be kept, got %q", places[1].Address)
			}
		})
	})
	t.Run("only the head of the list is considered", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := &mockCoder{}
			enricher := NewEnricher(coder, EnricherConfig{Limit: 2}, nil, nil)
			places := sentinelPlaces(4)
			places[0].Address = "Rua Augusta, 10"
			enricher.Enrich(t.Context(), places)
			if coder.count() != 1 {
				t.Errorf("expected 1 lookup, got %d", coder.count())
			}
			if places[2].Address != AddressUnavailable {
				t.Errorf("expected place outside the limit to keep the sentinel, got %q", places[2].Address)
			}
		})
	})
	t.Run("failures keep the sentinel and do not abort", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := &mockCoder{fail: true}
			enricher := NewEnricher(coder, EnricherConfig{Limit: MaxEnrichments}, nil, nil)
			places := sentinelPlaces(3)
			if enriched := enricher.Enrich(t.Context(), places); enriched != 0 {
				t.Errorf("expected no enriched places, got %d", enriched)
			}
			if coder.count() != 3 {
				t.Errorf("expected every place to be tried once, got %d lookups", coder.count())
			}
			for i, place := range places {
				if place.Address != AddressUnavailable {
					t.Errorf("expected place %d to keep the sentinel, got %q", i, place.Address)
				}
			}
		})
	})
	t.Run("not found keeps the sentinel", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			enricher := NewEnricher(&mockCoder{notFound: true}, EnricherConfig{Limit: 1}, nil, nil)
			places := sentinelPlaces(1)
			enricher.Enrich(t.Context(), places)
			if places[0].Address != AddressUnavailable {
				t.Errorf("expected sentinel, got %q", places[0].Address)
			}
		})
	})
	t.Run("canceled context stops the batch", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := &mockCoder{}
			enricher := NewEnricher(coder, EnricherConfig{Limit: MaxEnrichments}, nil, nil)
			ctx, cancel := context.WithTimeout(t.Context(), MinEnrichInterval+MinEnrichInterval/2)
			defer cancel()
			places := sentinelPlaces(5)
			enriched := enricher.Enrich(ctx, places)
			if enriched != 2 {
				t.Errorf("expected 2 enriched places before the deadline, got %d", enriched)
			}
			if places[4].Address != AddressUnavailable {
				t.Errorf("expected remaining places to keep the sentinel, got %q", places[4].Address)
			}
		})
	})
	t.Run("nil enricher is a no-op", func(t *testing.T) {
		var enricher *Enricher
		if enriched := enricher.Enrich(t.Context(), sentinelPlaces(2)); enriched != 0 {
			t.Errorf("expected no enriched places, got %d", enriched)
		}
	})
}
