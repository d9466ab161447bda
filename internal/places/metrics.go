// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search outcomes as recorded by the searches counter.
const (
	OutcomeFound    = "found"
	OutcomeEmpty    = "empty"
	OutcomeCached   = "cached"
	OutcomeLocation = "location_error"
	OutcomeFailed   = "failed"
)

// Metrics holds the Prometheus collectors of the search pipeline. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Searches       *prometheus.CounterVec
	CacheHits      prometheus.Counter
	TierQueries    *prometheus.CounterVec
	Enrichments    *prometheus.CounterVec
	SearchDuration prometheus.Histogram
}

// NewMetrics registers the collectors against reg. A nil registerer uses the default registry.
// Collectors that are already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	searches, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fides_places_searches_total",
		Help: "Number of searches by outcome.",
	}, []string{"outcome"}), "fides_places_searches_total")
	if err != nil {
		return nil, err
	}
	cacheHits, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fides_places_cache_hits_total",
		Help: "Number of searches answered from the result cache.",
	}), "fides_places_cache_hits_total")
	if err != nil {
		return nil, err
	}
	tierQueries, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fides_places_tier_queries_total",
		Help: "Number of Overpass queries by search tier and result.",
	}, []string{"tier", "result"}), "fides_places_tier_queries_total")
	if err != nil {
		return nil, err
	}
	enrichments, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fides_places_enrichments_total",
		Help: "Number of reverse geocoding lookups by result.",
	}, []string{"result"}), "fides_places_enrichments_total")
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fides_places_search_duration_seconds",
		Help:    "Duration of searches that were not answered from the cache.",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
	}), "fides_places_search_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:       gatherer,
		Searches:       searches,
		CacheHits:      cacheHits,
		TierQueries:    tierQueries,
		Enrichments:    enrichments,
		SearchDuration: duration,
	}, nil
}

// Gatherer returns the gatherer the collectors are exposed through.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.gatherer
}

func (m *Metrics) search(outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) tierQuery(tier, result string) {
	if m == nil {
		return
	}
	m.TierQueries.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) enrichment(result string) {
	if m == nil {
		return
	}
	m.Enrichments.WithLabelValues(result).Inc()
}

func (m *Metrics) observeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(d.Seconds())
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T, name string) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return collector, nil
}
