// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/fides-app/fides-places/internal/config"
	"github.com/fides-app/fides-places/internal/geocode"
	"github.com/fides-app/fides-places/internal/geocode/provider/opencage"
	nominatim "github.com/fides-app/fides-places/internal/geocode/provider/osm-nominatim"
	"github.com/fides-app/fides-places/internal/geolocate"
	"github.com/fides-app/fides-places/internal/geolocate/provider/cityname_file"
	"github.com/fides-app/fides-places/internal/geolocate/provider/geoapi"
	"github.com/fides-app/fides-places/internal/geolocate/provider/geoclue"
	"github.com/fides-app/fides-places/internal/geolocate/provider/geoip"
	"github.com/fides-app/fides-places/internal/geolocate/provider/geolocation_file"
	"github.com/fides-app/fides-places/internal/geolocate/provider/gpsd"
	"github.com/fides-app/fides-places/internal/geolocate/provider/ichnaea"
	"github.com/fides-app/fides-places/internal/logger"
)

var ErrNoLocators = errors.New("no geolocation providers enabled")

// selectLocators returns the enabled geolocation providers. Positions the user configured come
// first, then device sources, IP based lookups last.
func (s *Service) selectLocators(coder geocode.Geocoder) ([]geolocate.Provider, error) {
	var provider []geolocate.Provider

	if !s.config.GeoLocation.DisableGeolocationFile {
		provider = append(provider, geolocation_file.NewGeolocationFileProvider(s.config.GeoLocation.File))
	}

	if !s.config.GeoLocation.DisableCitynameFile {
		cnf, err := cityname_file.NewCitynameFileProvider(s.config.GeoLocation.CitynameFile, coder)
		if err != nil {
			return nil, fmt.Errorf("failed to create cityname file provider: %w", err)
		}
		provider = append(provider, cnf)
	}

	if !s.config.GeoLocation.DisableGeoClue {
		provider = append(provider, geoclue.NewGeolocationGeoClueProvider(s.config.GeoLocation.DesktopID))
	}

	if !s.config.GeoLocation.DisableGPSD {
		provider = append(provider, gpsd.NewGeolocationGPSDProvider(s.config.GeoLocation.GPSDHost,
			s.config.GeoLocation.GPSDPort))
	}

	if !s.config.GeoLocation.DisableICHNAEA {
		mls, err := ichnaea.NewGeolocationICHNAEAProvider(s.http)
		if err != nil {
			s.logger.Warn("failed to create ICHNAEA provider", logger.Err(err))
		} else {
			provider = append(provider, mls)
		}
	}

	if !s.config.GeoLocation.DisableGeoIP {
		provider = append(provider, geoip.NewGeolocationGeoIPProvider(s.http))
	}

	if !s.config.GeoLocation.DisableGeoAPI {
		gap, err := geoapi.NewGeolocationGeoAPIProvider(s.http)
		if err != nil {
			return nil, fmt.Errorf("failed to create GeoAPI provider: %w", err)
		}
		provider = append(provider, gap)
	}

	if len(provider) == 0 {
		return nil, ErrNoLocators
	}
	return provider, nil
}

// selectGeocodeProvider returns the configured reverse geocoder behind a result cache.
func (s *Service) selectGeocodeProvider(conf *config.Config, lang language.Tag) (geocode.Geocoder, error) {
	var geocoder geocode.Geocoder

	switch strings.ToLower(conf.Geocoder.Provider) {
	case config.GeocoderNominatim:
		geocoder = nominatim.New(s.http, lang)
	case config.GeocoderOpenCage:
		if conf.Geocoder.APIKey == "" {
			return nil, fmt.Errorf("opencage geocoder requires an API key")
		}
		geocoder = opencage.New(s.http, lang, conf.Geocoder.APIKey)
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", conf.Geocoder.Provider)
	}

	return geocode.NewCachedGeocoder(geocoder, conf.Geocoder.CacheHit, conf.Geocoder.CacheMiss), nil
}
