// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cityname_file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fides-app/fides-places/internal/geocode"
	"github.com/fides-app/fides-places/internal/geolocate"
)

const name = "cityname_file"

var ErrNoCoordinates = errors.New("no resolvable city name found in cityname file")

// CitynameFileProvider reads a place name ("São Paulo, SP") from a file and resolves it with
// the forward geocoder. Empty lines and lines starting with "#" are ignored, the first name
// the geocoder knows wins.
type CitynameFileProvider struct {
	name  string
	path  string
	coder geocode.Geocoder
}

func NewCitynameFileProvider(path string, coder geocode.Geocoder) (*CitynameFileProvider, error) {
	if coder == nil {
		return nil, errors.New("geocoder is required")
	}
	return &CitynameFileProvider{
		name:  name,
		path:  path,
		coder: coder,
	}, nil
}

func (p *CitynameFileProvider) Name() string {
	return p.name
}

func (p *CitynameFileProvider) Locate(ctx context.Context) (geolocate.Fix, error) {
	if p.path == "" {
		return geolocate.Fix{}, geolocate.NewError(geolocate.Unsupported, p.name,
			errors.New("no cityname file configured"))
	}
	data, err := os.ReadFile(p.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return geolocate.Fix{}, geolocate.NewError(geolocate.Unsupported, p.name, err)
	case err != nil:
		return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name,
			fmt.Errorf("failed to read cityname file %q: %w", p.path, err))
	}

	var lastErr error
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err = ctx.Err(); err != nil {
			return geolocate.Fix{}, geolocate.FromContext(p.name, err, geolocate.Timeout)
		}

		loc, err := p.coder.Search(ctx, line)
		if err != nil {
			lastErr = err
			continue
		}
		if !loc.Found || !loc.Valid() {
			continue
		}
		return geolocate.Fix{
			Coordinate:     loc.Coordinate,
			AccuracyMeters: geolocate.AccuracyCity,
			Source:         p.name,
		}, nil
	}

	if lastErr != nil {
		return geolocate.Fix{}, geolocate.FromContext(p.name, lastErr, geolocate.PositionUnavailable)
	}
	return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name, ErrNoCoordinates)
}
