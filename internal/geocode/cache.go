// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fides-app/fides-places/internal/geo"
)

// coordPrecision is the precision used to quantize coordinates (0.0001 degrees ≈ 11 m). Two
// churches are rarely closer than that, so neighbours do not share a cached address.
const coordPrecision = 1e-4

type cacheKey struct {
	Provider string
	LatQ     int32
	LonQ     int32
}

type cacheEntry struct {
	Address Address
	Expiry  time.Time
}

type searchEntry struct {
	Location Location
	Expiry   time.Time
}

type CachedGeocoder struct {
	coder   Geocoder
	ttlHit  time.Duration
	ttlMiss time.Duration

	mu       sync.RWMutex
	cache    map[cacheKey]cacheEntry
	searches map[string]searchEntry
}

func NewCachedGeocoder(coder Geocoder, ttlHit, ttlMiss time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		coder:    coder,
		ttlHit:   ttlHit,
		ttlMiss:  ttlMiss,
		cache:    make(map[cacheKey]cacheEntry),
		searches: make(map[string]searchEntry),
	}
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

// Cached returns the unexpired cached address for the coordinates without asking the provider.
func (c *CachedGeocoder) Cached(coords geo.Coordinate) (Address, bool) {
	key := newKey(c.coder.Name(), coords.Lat, coords.Lon)

	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !time.Now().Before(entry.Expiry) {
		return Address{}, false
	}
	addr := entry.Address
	addr.CacheHit = true
	return addr, true
}

func (c *CachedGeocoder) Reverse(ctx context.Context, coords geo.Coordinate) (Address, error) {
	if addr, ok := c.Cached(coords); ok {
		return addr, nil
	}
	key := newKey(c.coder.Name(), coords.Lat, coords.Lon)

	addr, err := c.coder.Reverse(ctx, coords)
	if err != nil {
		return addr, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{
		Address: addr,
		Expiry:  time.Now().Add(c.ttl(addr.AddressFound)),
	}

	return addr, nil
}

func (c *CachedGeocoder) Search(ctx context.Context, address string) (Location, error) {
	key := c.coder.Name() + "|" + strings.ToLower(strings.TrimSpace(address))

	c.mu.RLock()
	entry, ok := c.searches[key]
	if ok && time.Now().Before(entry.Expiry) {
		loc := entry.Location
		c.mu.RUnlock()
		loc.CacheHit = true
		return loc, nil
	}
	c.mu.RUnlock()

	loc, err := c.coder.Search(ctx, address)
	if err != nil {
		return loc, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.searches[key] = searchEntry{
		Location: loc,
		Expiry:   time.Now().Add(c.ttl(loc.Found)),
	}

	return loc, nil
}

func (c *CachedGeocoder) ttl(found bool) time.Duration {
	if !found {
		return c.ttlMiss
	}
	return c.ttlHit
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}

func newKey(provider string, lat, lon float64) cacheKey {
	return cacheKey{
		Provider: provider,
		LatQ:     quantizeCoord(lat),
		LonQ:     quantizeCoord(lon),
	}
}
