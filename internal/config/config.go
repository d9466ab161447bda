// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const (
	configEnv = "FIDESPLACES"

	MinRadius         = 100
	MaxRadius         = 50000
	MaxEnrichLimit    = 10
	MinEnrichInterval = 1100 * time.Millisecond

	GeocoderNominatim = "nominatim"
	GeocoderOpenCage  = "opencage"

	FormatTable    = "table"
	FormatJSON     = "json"
	FormatTemplate = "template"
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Search struct {
		// Allowed values: 100 to 50000
		Radius           int           `fig:"radius" default:"5000"`
		CacheTTL         time.Duration `fig:"cache_ttl" default:"30m"`
		OverpassEndpoint string        `fig:"overpass_endpoint" default:"https://overpass-api.de/api/interpreter"`
		OverpassTimeout  time.Duration `fig:"overpass_timeout" default:"30s"`
	} `fig:"search"`

	Enrichment struct {
		// Allowed values: 0 to 10
		Limit    int           `fig:"limit" default:"10"`
		Interval time.Duration `fig:"interval" default:"1100ms"`
		Disable  bool          `fig:"disable"`
	} `fig:"enrichment"`

	Geocoder struct {
		// Allowed values: nominatim, opencage
		Provider  string        `fig:"provider" default:"nominatim"`
		APIKey    string        `fig:"apikey"`
		CacheHit  time.Duration `fig:"cache_hit_ttl" default:"24h"`
		CacheMiss time.Duration `fig:"cache_miss_ttl" default:"1h"`
	} `fig:"geocoder"`

	GeoLocation struct {
		File                   string        `fig:"file"`
		CitynameFile           string        `fig:"cityname_file"`
		Timeout                time.Duration `fig:"timeout" default:"10s"`
		DesktopID              string        `fig:"desktop_id" default:"fides-places"`
		GPSDHost               string        `fig:"gpsd_host" default:"localhost"`
		GPSDPort               string        `fig:"gpsd_port" default:"2947"`
		DisableGeolocationFile bool          `fig:"disable_geolocation_file"`
		DisableCitynameFile    bool          `fig:"disable_cityname_file"`
		DisableGeoClue         bool          `fig:"disable_geoclue"`
		DisableGPSD            bool          `fig:"disable_gpsd"`
		DisableICHNAEA         bool          `fig:"disable_ichnaea"`
		DisableGeoIP           bool          `fig:"disable_geoip"`
		DisableGeoAPI          bool          `fig:"disable_geoapi"`
	} `fig:"geolocation"`

	Intervals struct {
		Refresh time.Duration `fig:"refresh" default:"15m"`
	} `fig:"intervals"`

	Output struct {
		// Allowed values: table, json, template
		Format   string `fig:"format" default:"table"`
		Template string `fig:"template"`
	} `fig:"output"`

	Metrics struct {
		Addr string `fig:"addr"`
	} `fig:"metrics"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// NewDefault loads the first config file found in the user's config directory
// (~/.config/fides-places/config.{toml,yaml,yml,json}) and falls back to New.
func NewDefault() (*Config, error) {
	dir := DefaultDir()
	for _, file := range []string{"config.toml", "config.yaml", "config.yml", "config.json"} {
		if _, err := os.Stat(filepath.Join(dir, file)); err == nil {
			return NewFromFile(dir, file)
		}
	}
	return New()
}

// DefaultDir returns the directory holding the user's configuration and geolocation file.
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fides-places")
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.Search.Radius < MinRadius || c.Search.Radius > MaxRadius {
		return fmt.Errorf("invalid search radius: %d", c.Search.Radius)
	}
	if c.Search.CacheTTL <= 0 {
		return fmt.Errorf("invalid cache TTL: %s", c.Search.CacheTTL)
	}
	if c.Search.OverpassTimeout <= 0 {
		return fmt.Errorf("invalid overpass timeout: %s", c.Search.OverpassTimeout)
	}
	if u, err := url.Parse(c.Search.OverpassEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid overpass endpoint: %q", c.Search.OverpassEndpoint)
	}
	if c.Enrichment.Limit < 0 || c.Enrichment.Limit > MaxEnrichLimit {
		return fmt.Errorf("invalid enrichment limit: %d", c.Enrichment.Limit)
	}
	if c.Enrichment.Interval < MinEnrichInterval {
		return fmt.Errorf("enrichment interval must be at least %s: %s", MinEnrichInterval, c.Enrichment.Interval)
	}
	switch c.Geocoder.Provider {
	case GeocoderNominatim:
	case GeocoderOpenCage:
		if c.Geocoder.APIKey == "" {
			return fmt.Errorf("geocoder %q requires an API key", c.Geocoder.Provider)
		}
	default:
		return fmt.Errorf("invalid geocoder provider: %s", c.Geocoder.Provider)
	}
	if c.GeoLocation.Timeout <= 0 {
		return fmt.Errorf("invalid geolocation timeout: %s", c.GeoLocation.Timeout)
	}
	if c.GeoLocation.File == "" {
		c.GeoLocation.File = filepath.Join(DefaultDir(), "geolocation")
	}
	if c.GeoLocation.CitynameFile == "" {
		c.GeoLocation.CitynameFile = filepath.Join(DefaultDir(), "cityname")
	}
	switch c.Output.Format {
	case FormatTable, FormatJSON:
	case FormatTemplate:
		if c.Output.Template == "" {
			return fmt.Errorf("output format %q requires a template", c.Output.Format)
		}
	default:
		return fmt.Errorf("invalid output format: %s", c.Output.Format)
	}
	if c.Intervals.Refresh < time.Minute {
		return fmt.Errorf("refresh interval must be at least one minute: %s", c.Intervals.Refresh)
	}

	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
