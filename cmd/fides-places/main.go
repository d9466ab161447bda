// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package main implements the fides-places command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fides-app/fides-places/internal/config"
	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/i18n"
	"github.com/fides-app/fides-places/internal/logger"
	"github.com/fides-app/fides-places/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cliOptions are the parsed command line flags.
type cliOptions struct {
	configFile  string
	origin      *geo.Coordinate
	address     string
	radius      int
	watch       bool
	json        bool
	metricsAddr string
	version     bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	log := logger.New(slog.LevelError)
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Error("invalid command line", logger.Err(err))
		os.Exit(2)
	}
	if opts.version {
		fmt.Printf("fides-places %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	conf, err := loadConfig(opts)
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	log = logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	serv, err := service.New(conf, log, t, service.Options{
		Origin:  opts.origin,
		Address: opts.address,
		Radius:  opts.radius,
	})
	if err != nil {
		log.Error("failed to initialize fides-places", logger.Err(err))
		os.Exit(1)
	}

	if !opts.watch {
		if err = serv.Once(ctx); err != nil {
			log.Debug("search failed", logger.Err(err))
			fmt.Fprintln(os.Stderr, serv.ErrorMessage(err))
			os.Exit(1)
		}
		return
	}

	log.Info(t.Get("starting fides-places watch mode"), slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	if err = serv.Run(ctx); err != nil {
		log.Error(t.Get("failed to run fides-places"), logger.Err(err))
		os.Exit(1)
	}
	log.Info(t.Get("shutting down fides-places"))
}

// parseFlags parses the command line. Latitude and longitude have to be given together and
// exclude -address. The metrics endpoint only exists in watch mode.
func parseFlags(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions
	var lat, lon float64

	flags := flag.NewFlagSet("fides-places", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.StringVar(&opts.configFile, "config", "", "path to the config file")
	flags.Float64Var(&lat, "lat", 0, "latitude of the search origin")
	flags.Float64Var(&lon, "lon", 0, "longitude of the search origin")
	flags.StringVar(&opts.address, "address", "", "address to search around instead of the device position")
	flags.IntVar(&opts.radius, "radius", 0, "search radius in meters (default from config)")
	flags.BoolVar(&opts.watch, "watch", false, "repeat the search every refresh interval")
	flags.BoolVar(&opts.json, "json", false, "write the result as JSON")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "listen address of the metrics endpoint (requires -watch)")
	flags.BoolVar(&opts.version, "version", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if flags.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", flags.Args())
	}

	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["lat"] != set["lon"] {
		return opts, errors.New("-lat and -lon must be given together")
	}
	if set["lat"] {
		if opts.address != "" {
			return opts, errors.New("-address cannot be combined with -lat and -lon")
		}
		origin := geo.Coordinate{Lat: lat, Lon: lon}
		if !origin.Valid() {
			return opts, fmt.Errorf("coordinate out of range: %s", origin)
		}
		opts.origin = &origin
	}
	if opts.metricsAddr != "" && !opts.watch {
		return opts, errors.New("-metrics-addr requires -watch")
	}
	if set["radius"] && (opts.radius < config.MinRadius || opts.radius > config.MaxRadius) {
		return opts, fmt.Errorf("radius must be between %d and %d meters", config.MinRadius, config.MaxRadius)
	}
	return opts, nil
}

// loadConfig reads the -config file or the default config and applies the flag overrides.
func loadConfig(opts cliOptions) (*config.Config, error) {
	var conf *config.Config
	var err error
	if opts.configFile != "" {
		conf, err = config.NewFromFile(filepath.Dir(opts.configFile), filepath.Base(opts.configFile))
	} else {
		conf, err = config.NewDefault()
	}
	if err != nil {
		return nil, err
	}

	if opts.json {
		conf.Output.Format = config.FormatJSON
	}
	if opts.metricsAddr != "" {
		conf.Metrics.Addr = opts.metricsAddr
	}
	return conf, nil
}
