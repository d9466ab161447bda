// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geolocate"
)

const (
	name = "geolocation_file"

	// Accuracy is reported for every file fix. A user maintained file is considered the most
	// accurate source available.
	Accuracy = 5
)

var ErrNoCoordinates = errors.New("no valid coordinates found in geolocation file")

// GeolocationFileProvider reads the position from a file holding a single "lat,lon" line.
// Empty lines and lines starting with "#" are ignored.
type GeolocationFileProvider struct {
	name string
	path string
}

func NewGeolocationFileProvider(path string) *GeolocationFileProvider {
	return &GeolocationFileProvider{
		name: name,
		path: path,
	}
}

func (p *GeolocationFileProvider) Name() string {
	return p.name
}

// Locate reads the file once. A missing file means the source is not set up on this host.
func (p *GeolocationFileProvider) Locate(ctx context.Context) (geolocate.Fix, error) {
	if err := ctx.Err(); err != nil {
		return geolocate.Fix{}, geolocate.FromContext(p.name, err, geolocate.Timeout)
	}
	if p.path == "" {
		return geolocate.Fix{}, geolocate.NewError(geolocate.Unsupported, p.name,
			errors.New("no geolocation file configured"))
	}

	coord, err := p.readFile()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return geolocate.Fix{}, geolocate.NewError(geolocate.Unsupported, p.name, err)
	case err != nil:
		return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name, err)
	}

	return geolocate.Fix{
		Coordinate:     coord,
		AccuracyMeters: Accuracy,
		Source:         p.name,
	}, nil
}

// readFile returns the first parsable coordinate of the file.
func (p *GeolocationFileProvider) readFile() (geo.Coordinate, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to read geolocation file %q: %w", p.path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		coords := strings.Split(line, ",")
		if len(coords) != 2 {
			continue
		}
		var coord geo.Coordinate
		coord.Lat, err = strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			continue
		}
		coord.Lon, err = strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			continue
		}
		if !coord.Valid() {
			continue
		}
		return coord, nil
	}
	return geo.Coordinate{}, ErrNoCoordinates
}
