// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geocode"
	"github.com/fides-app/fides-places/internal/logger"
)

const (
	// MaxEnrichments is the upper bound of reverse geocoding lookups per search.
	MaxEnrichments = 10
	// MinEnrichInterval keeps lookups below the one request per second policy of Nominatim.
	MinEnrichInterval = 1100 * time.Millisecond
)

// Enrichment results as recorded by the enrichments counter.
const (
	enrichOK       = "ok"
	enrichNotFound = "not_found"
	enrichFailed   = "failed"
)

// EnricherConfig controls the reverse geocoding of places without an address.
type EnricherConfig struct {
	// Limit is the number of places from the head of the list that are looked at.
	Limit int
	// Interval is the minimum spacing between two lookups.
	Interval time.Duration
}

// addressCache is implemented by geocoders that can answer from memory.
type addressCache interface {
	Cached(coords geo.Coordinate) (geocode.Address, bool)
}

// Enricher replaces the AddressUnavailable sentinel with reverse geocoded addresses. Lookups
// are sequential and spaced by a rate limiter shared by all searches of the Enricher.
type Enricher struct {
	coder   geocode.Geocoder
	limiter *rate.Limiter
	limit   int
	logger  *logger.Logger
	metrics *Metrics
}

// NewEnricher returns an Enricher. The limit is clamped to [0, MaxEnrichments] and the
// interval raised to MinEnrichInterval if lower.
func NewEnricher(coder geocode.Geocoder, conf EnricherConfig, log *logger.Logger, metrics *Metrics) *Enricher {
	if log == nil {
		log = logger.Discard()
	}
	limit := min(max(conf.Limit, 0), MaxEnrichments)
	interval := max(conf.Interval, MinEnrichInterval)
	return &Enricher{
		coder:   coder,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		limit:   limit,
		logger:  log,
		metrics: metrics,
	}
}

// Enrich looks up addresses for the places among the first Limit entries that still carry
// the sentinel and updates them in place. It returns the number of enriched places. Failed
// lookups are logged and skipped, a canceled context ends the batch early.
func (e *Enricher) Enrich(ctx context.Context, places []Place) int {
	if e == nil || e.coder == nil {
		return 0
	}

	enriched := 0
	for i := range places[:min(len(places), e.limit)] {
		if places[i].HasAddress() {
			continue
		}
		address, found := e.cached(places[i].Coordinate)
		var err error
		if !found {
			if err = e.limiter.Wait(ctx); err != nil {
				e.logger.Debug("address enrichment stopped", slog.Int("enriched", enriched), logger.Err(err))
				return enriched
			}
			address, err = e.coder.Reverse(ctx, places[i].Coordinate)
		}
		if err != nil {
			e.metrics.enrichment(enrichFailed)
			e.logger.Warn("failed to enrich address", slog.String("place", places[i].ID),
				slog.String("geocoder", e.coder.Name()), logger.Err(err))
			continue
		}
		line := address.Short()
		if !address.AddressFound || line == "" {
			e.metrics.enrichment(enrichNotFound)
			e.logger.Debug("no address found for place", slog.String("place", places[i].ID))
			continue
		}

		places[i].Address = line
		enriched++
		e.metrics.enrichment(enrichOK)
	}
	return enriched
}

// cached returns the address if the geocoder can answer without a request. Cached answers
// skip the rate limiter.
func (e *Enricher) cached(coords geo.Coordinate) (geocode.Address, bool) {
	cache, ok := e.coder.(addressCache)
	if !ok {
		return geocode.Address{}, false
	}
	return cache.Cached(coords)
}
