// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"testing"

	"github.com/fides-app/fides-places/internal/geo"
)

func TestDedupe(t *testing.T) {
	t.Run("same name and rounded coordinate collapse", func(t *testing.T) {
		places := []Place{
			{ID: "osm-way-1", Name: "Catedral da Sé", Coordinate: geo.Coordinate{Lat: -23.55061, Lon: -46.63341}},
			{ID: "osm-node-2", Name: "CATEDRAL DA SÉ", Coordinate: geo.Coordinate{Lat: -23.55059, Lon: -46.63339}},
		}
		unique := Dedupe(places)
		if len(unique) != 1 {
			t.Fatalf("expected 1 place, got %d", len(unique))
		}
		if unique[0].ID != "osm-way-1" {
			t.Errorf("expected first occurrence to be kept, got %s", unique[0].ID)
		}
	})
	t.Run("different names or positions are kept in order", func(t *testing.T) {
		places := []Place{
			{ID: "1", Name: "Capela", Coordinate: geo.Coordinate{Lat: 1, Lon: 1}},
			{ID: "2", Name: "Capela", Coordinate: geo.Coordinate{Lat: 1.001, Lon: 1}},
			{ID: "3", Name: "Igreja", Coordinate: geo.Coordinate{Lat: 1, Lon: 1}},
			{ID: "4", Name: "capela", Coordinate: geo.Coordinate{Lat: 1, Lon: 1}},
		}
		unique := Dedupe(places)
		want := []string{"1", "2", "3"}
		if len(unique) != len(want) {
			t.Fatalf("expected %d places, got %d", len(want), len(unique))
		}
		for i, id := range want {
			if unique[i].ID != id {
				t.Errorf("expected place %d to be %s, got %s", i, id, unique[i].ID)
			}
		}
	})
	t.Run("halfway coordinates round up", func(t *testing.T) {
		places := []Place{
			{ID: "1", Name: "Capela", Coordinate: geo.Coordinate{Lat: 0.03125, Lon: 1}},
			{ID: "2", Name: "Capela", Coordinate: geo.Coordinate{Lat: 0.0313, Lon: 1}},
		}
		if unique := Dedupe(places); len(unique) != 1 {
			t.Errorf("expected halfway latitude to share the key of 0.0313, got %d places", len(unique))
		}
		if key := dedupeKey(places[0]); key != "capela-0.0313-1.0000" {
			t.Errorf("unexpected dedupe key %q", key)
		}
	})
	t.Run("mixed payload", func(t *testing.T) {
		unique := Dedupe(Normalize(loadResponse(t, mixedFile), saoPaulo))
		if len(unique) != 3 {
			t.Fatalf("expected 3 places, got %d", len(unique))
		}
		for _, place := range unique {
			if place.ID == "osm-node-21" {
				t.Error("expected node duplicate of the cathedral way to be removed")
			}
		}
	})
	t.Run("empty input", func(t *testing.T) {
		if unique := Dedupe(nil); unique == nil || len(unique) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", unique)
		}
	})
}
