// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vorlif/spreak"

	"github.com/fides-app/fides-places/internal/config"
	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geocode"
	"github.com/fides-app/fides-places/internal/geolocate"
	"github.com/fides-app/fides-places/internal/http"
	"github.com/fides-app/fides-places/internal/logger"
	"github.com/fides-app/fides-places/internal/overpass"
	"github.com/fides-app/fides-places/internal/places"
	"github.com/fides-app/fides-places/internal/presenter"
)

const (
	// SearchTimeout bounds a complete search including geolocation and enrichment.
	SearchTimeout = time.Minute * 3
	SourceManual  = "manual"

	refreshJobName = "search_refresh_job"
)

// Options are the per-invocation overrides of the configured search.
type Options struct {
	Origin  *geo.Coordinate
	Address string
	Radius  int
	Output  io.Writer
}

type Service struct {
	config    *config.Config
	logger    *logger.Logger
	t         *spreak.Localizer
	http      *http.Client
	presenter *presenter.Presenter
	registry  *prometheus.Registry
	metrics   *places.Metrics
	scheduler gocron.Scheduler
	opts      Options
	output    io.Writer

	SignalSrc    signalSource
	sleepMonitor func(context.Context)

	setupOnce sync.Once
	setupErr  error
	searcher  *places.Searcher
	locator   *recordingLocator
	geocoder  geocode.Geocoder
	job       gocron.Job
	state     atomic.Int32

	resultLock sync.RWMutex
	result     *presenter.Result
}

func New(conf *config.Config, log *logger.Logger, t *spreak.Localizer, opts Options) (*Service, error) {
	if log == nil {
		log = logger.New(conf.LogLevel)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	pres, err := presenter.New(conf, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := places.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	service := &Service{
		config:    conf,
		logger:    log,
		t:         t,
		http:      http.New(log),
		presenter: pres,
		registry:  registry,
		metrics:   metrics,
		scheduler: scheduler,
		opts:      opts,
		output:    output,
		SignalSrc: stdLibSignalSource{},
	}
	service.sleepMonitor = service.monitorSleepResume
	return service, nil
}

// setup wires the geolocation chain, the geocoder and the searcher. Device geolocation is only
// set up if neither an origin nor an address was given.
func (s *Service) setup() error {
	s.setupOnce.Do(func() {
		s.setupErr = s.createSearcher()
	})
	return s.setupErr
}

func (s *Service) createSearcher() error {
	geocoder, err := s.selectGeocodeProvider(s.config, s.t.Language())
	if err != nil {
		return fmt.Errorf("failed to create geocode provider: %w", err)
	}
	s.geocoder = geocoder

	var locator geolocate.Locator
	if s.opts.Origin == nil && s.opts.Address == "" {
		providers, err := s.selectLocators(geocoder)
		if err != nil {
			return fmt.Errorf("failed to create geolocation chain: %w", err)
		}
		chain := geolocate.NewChain(s.logger, s.config.GeoLocation.Timeout, providers...)
		s.logger.Debug("geolocation chain configured", slog.Any("providers", chain.Providers()))
		s.locator = &recordingLocator{locator: chain}
		locator = s.locator
	}

	fetcher, err := overpass.New(s.http, s.config.Search.OverpassEndpoint, s.config.Search.OverpassTimeout)
	if err != nil {
		return fmt.Errorf("failed to create overpass client: %w", err)
	}

	var enricher *places.Enricher
	if !s.config.Enrichment.Disable {
		enricher = places.NewEnricher(geocoder, places.EnricherConfig{
			Limit:    s.config.Enrichment.Limit,
			Interval: s.config.Enrichment.Interval,
		}, s.logger, s.metrics)
	}

	s.searcher = places.NewSearcher(fetcher, locator, enricher, places.SearcherConfig{
		Radius:   s.config.Search.Radius,
		CacheTTL: s.config.Search.CacheTTL,
	}, s.logger, s.metrics)
	s.searcher.OnStateChange(func(state places.State, _ overpass.Tier) {
		s.state.Store(int32(state))
	})
	return nil
}

// Once runs a single search and renders it in the configured output format.
func (s *Service) Once(ctx context.Context) error {
	ctxSearch, cancel := context.WithTimeout(ctx, SearchTimeout)
	defer cancel()

	res, err := s.Search(ctxSearch)
	if err != nil {
		return err
	}
	return s.presenter.Render(s.output, res)
}

// Run starts the watch mode. The search is repeated every refresh interval until the context
// is canceled, each run writes one result line.
func (s *Service) Run(ctx context.Context) error {
	if err := s.setup(); err != nil {
		return err
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(s.config.Intervals.Refresh),
		gocron.NewTask(s.refresh),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(refreshJobName),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", refreshJobName, err)
	}
	s.job = job
	s.scheduler.Start()

	if s.config.Metrics.Addr != "" {
		go func() {
			if err := s.serveMetrics(ctx, s.config.Metrics.Addr); err != nil {
				s.logger.Error("metrics endpoint failed", slog.String("addr", s.config.Metrics.Addr),
					logger.Err(err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	s.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		defer s.SignalSrc.Stop(sigChan)
		s.HandleSignals(ctx, sigChan)
	}()
	if s.sleepMonitor != nil {
		go s.sleepMonitor(ctx)
	}

	<-ctx.Done()
	return s.scheduler.Shutdown()
}

// Search resolves the origin and runs the tiered search.
func (s *Service) Search(ctx context.Context) (presenter.Result, error) {
	if err := s.setup(); err != nil {
		return presenter.Result{}, err
	}

	origin, source, err := s.origin(ctx)
	if err != nil {
		return presenter.Result{}, err
	}
	radius := s.opts.Radius
	if radius <= 0 {
		radius = s.config.Search.Radius
	}

	found, err := s.searcher.Search(ctx, origin, radius)
	if err != nil {
		return presenter.Result{}, err
	}

	var coord geo.Coordinate
	switch {
	case origin != nil:
		coord = *origin
	case s.locator != nil:
		if fix, ok := s.locator.Last(); ok {
			coord, source = fix.Coordinate, fix.Source
		}
	}

	res := s.presenter.BuildResult(coord, source, radius, found, time.Now())
	s.resultLock.Lock()
	s.result = &res
	s.resultLock.Unlock()
	return res, nil
}

// origin returns the explicit or geocoded origin. A nil origin leaves the lookup to the
// geolocation chain.
func (s *Service) origin(ctx context.Context) (*geo.Coordinate, string, error) {
	switch {
	case s.opts.Origin != nil:
		return s.opts.Origin, SourceManual, nil
	case s.opts.Address != "":
		loc, err := s.geocoder.Search(ctx, s.opts.Address)
		if err != nil {
			return nil, "", fmt.Errorf("failed to geocode address: %w", err)
		}
		if !loc.Found {
			return nil, "", fmt.Errorf("%w: %q", geocode.ErrNotFound, s.opts.Address)
		}
		coord := loc.Coordinate
		return &coord, s.geocoder.Name(), nil
	}
	return nil, "", nil
}

// refresh is the scheduled watch mode task.
func (s *Service) refresh(ctx context.Context) {
	ctxSearch, cancel := context.WithTimeout(ctx, SearchTimeout)
	defer cancel()

	res, err := s.Search(ctxSearch)
	if err != nil {
		s.logger.Error("search failed", slog.String("reason", s.presenter.ErrorMessage(err)), logger.Err(err))
		return
	}

	if s.presenter.Format() == config.FormatTemplate {
		err = s.presenter.Text(s.output, res)
	} else {
		err = s.presenter.JSON(s.output, res)
	}
	if err != nil {
		s.logger.Error("failed to write search result", logger.Err(err))
	}
}

// trigger runs the refresh job immediately, outside its schedule.
func (s *Service) trigger(ctx context.Context) {
	if s.job == nil {
		s.refresh(ctx)
		return
	}
	if err := s.job.RunNow(); err != nil {
		s.logger.Error("failed to trigger search refresh", logger.Err(err))
	}
}

// LastResult returns the result of the latest successful search.
func (s *Service) LastResult() (presenter.Result, bool) {
	s.resultLock.RLock()
	defer s.resultLock.RUnlock()
	if s.result == nil {
		return presenter.Result{}, false
	}
	return *s.result, true
}

// ErrorMessage returns the localized description of a failed search.
func (s *Service) ErrorMessage(err error) string {
	return s.presenter.ErrorMessage(err)
}

// State returns the state of the latest search.
func (s *Service) State() places.State {
	return places.State(s.state.Load())
}
