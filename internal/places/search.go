// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geolocate"
	"github.com/fides-app/fides-places/internal/logger"
	"github.com/fides-app/fides-places/internal/overpass"
)

const (
	DefaultRadius   = 5000
	DefaultCacheTTL = 30 * time.Minute
)

var ErrInvalidCoordinate = errors.New("coordinate out of range")

// State is a step of a single search.
type State int

const (
	StateIdle State = iota
	StateLocating
	StateQuerying
	StateNormalizing
	StateEnriching
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateLocating:    "locating",
	StateQuerying:    "querying",
	StateNormalizing: "normalizing",
	StateEnriching:   "enriching",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StateObserver is notified about every state a search enters. The tier is only meaningful for
// StateQuerying and StateNormalizing.
type StateObserver func(state State, tier overpass.Tier)

// Fetcher runs an Overpass query.
type Fetcher interface {
	Query(ctx context.Context, query string) (*overpass.Response, error)
}

// SearchError reports the tier whose query failed. A failing tier aborts the whole search.
type SearchError struct {
	Tier overpass.Tier
	Err  error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed at tier %s: %s", e.Tier, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// SearcherConfig holds the search defaults.
type SearcherConfig struct {
	Radius   int
	CacheTTL time.Duration
}

type cacheEntry struct {
	results []Place
	stored  time.Time
}

// Searcher runs the tiered search and owns its result cache. Concurrent searches are
// independent, the last one to finish wins the cache slot.
type Searcher struct {
	fetcher  Fetcher
	locator  geolocate.Locator
	enricher *Enricher
	logger   *logger.Logger
	metrics  *Metrics
	observer StateObserver
	radius   int
	ttl      time.Duration
	nowFn    func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewSearcher returns a Searcher. The locator is only used for searches without an origin and
// may be nil, as may the enricher and the metrics.
func NewSearcher(fetcher Fetcher, locator geolocate.Locator, enricher *Enricher, conf SearcherConfig,
	log *logger.Logger, metrics *Metrics,
) *Searcher {
	if log == nil {
		log = logger.Discard()
	}
	if conf.Radius <= 0 {
		conf.Radius = DefaultRadius
	}
	if conf.CacheTTL <= 0 {
		conf.CacheTTL = DefaultCacheTTL
	}
	return &Searcher{
		fetcher:  fetcher,
		locator:  locator,
		enricher: enricher,
		logger:   log,
		metrics:  metrics,
		radius:   conf.Radius,
		ttl:      conf.CacheTTL,
		nowFn:    time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

// OnStateChange registers fn as the state observer. It must be called before the first search.
func (s *Searcher) OnStateChange(fn StateObserver) {
	s.observer = fn
}

// Search returns the places of worship around origin, nearest first. Without an origin the
// device position is used. A non-positive radius uses the configured default. No result is
// an empty, non-nil slice.
func (s *Searcher) Search(ctx context.Context, origin *geo.Coordinate, radiusMeters int) ([]Place, error) {
	s.transition(StateIdle, 0)
	coord, err := s.resolve(ctx, origin)
	if err != nil {
		s.transition(StateFailed, 0)
		s.metrics.search(OutcomeLocation)
		return nil, err
	}
	if radiusMeters <= 0 {
		radiusMeters = s.radius
	}

	key := cacheKey(coord, radiusMeters)
	if results, ok := s.cached(key); ok {
		s.logger.Debug("search answered from cache", slog.String("key", key), slog.Int("results", len(results)))
		s.metrics.cacheHit()
		s.metrics.search(OutcomeCached)
		s.transition(StateDone, 0)
		return results, nil
	}

	start := s.nowFn()
	results, err := s.cascade(ctx, coord, radiusMeters)
	if err != nil {
		s.transition(StateFailed, 0)
		s.metrics.search(OutcomeFailed)
		return nil, err
	}
	if len(results) == 0 {
		s.metrics.search(OutcomeEmpty)
		s.metrics.observeDuration(s.nowFn().Sub(start))
		s.transition(StateDone, 0)
		return []Place{}, nil
	}

	s.transition(StateEnriching, 0)
	enriched := s.enricher.Enrich(ctx, results)
	s.store(key, results)

	s.logger.Debug("search completed", slog.String("origin", coord.String()), slog.Int("radius", radiusMeters),
		slog.Int("results", len(results)), slog.Int("enriched", enriched))
	s.metrics.search(OutcomeFound)
	s.metrics.observeDuration(s.nowFn().Sub(start))
	s.transition(StateDone, 0)
	return results, nil
}

func (s *Searcher) resolve(ctx context.Context, origin *geo.Coordinate) (geo.Coordinate, error) {
	if origin != nil {
		if !origin.Valid() {
			return geo.Coordinate{}, fmt.Errorf("%w: %s", ErrInvalidCoordinate, origin)
		}
		return *origin, nil
	}

	s.transition(StateLocating, 0)
	if s.locator == nil {
		return geo.Coordinate{}, geolocate.NewError(geolocate.Unsupported, "searcher",
			errors.New("no origin given and no locator configured"))
	}
	fix, err := s.locator.Locate(ctx)
	if err != nil {
		return geo.Coordinate{}, err
	}
	return fix.Coordinate, nil
}

// cascade queries the tiers in order and stops at the first one with results. A failed query
// aborts the cascade.
func (s *Searcher) cascade(ctx context.Context, origin geo.Coordinate, radius int) ([]Place, error) {
	for _, tier := range overpass.Tiers() {
		s.transition(StateQuerying, tier)
		resp, err := s.fetcher.Query(ctx, overpass.BuildQuery(origin, radius, tier))
		if err != nil {
			s.metrics.tierQuery(tier.String(), "error")
			s.logger.Error("tier query failed", slog.String("tier", tier.String()), logger.Err(err))
			return nil, &SearchError{Tier: tier, Err: err}
		}

		s.transition(StateNormalizing, tier)
		places := Dedupe(Normalize(resp, origin))
		SortByDistance(places)
		if len(places) > 0 {
			s.metrics.tierQuery(tier.String(), "found")
			s.logger.Debug("tier returned places", slog.String("tier", tier.String()),
				slog.Int("places", len(places)))
			return places, nil
		}
		s.metrics.tierQuery(tier.String(), "empty")
	}
	return nil, nil
}

func (s *Searcher) cached(key string) ([]Place, bool) {
	s.mu.Lock()
	entry, ok := s.cache[key]
	s.mu.Unlock()
	if !ok || s.nowFn().Sub(entry.stored) >= s.ttl {
		return nil, false
	}
	return slices.Clone(entry.results), true
}

func (s *Searcher) store(key string, results []Place) {
	s.mu.Lock()
	s.cache[key] = cacheEntry{results: slices.Clone(results), stored: s.nowFn()}
	s.mu.Unlock()
}

func (s *Searcher) transition(state State, tier overpass.Tier) {
	attrs := []any{slog.String("state", state.String())}
	if state == StateQuerying || state == StateNormalizing {
		attrs = append(attrs, slog.String("tier", tier.String()))
	}
	s.logger.Debug("search state changed", attrs...)
	if s.observer != nil {
		s.observer(state, tier)
	}
}

func cacheKey(coord geo.Coordinate, radius int) string {
	return geo.FormatFixed(coord.Lat, 4) + "-" + geo.FormatFixed(coord.Lon, 4) + "-" + strconv.Itoa(radius)
}
