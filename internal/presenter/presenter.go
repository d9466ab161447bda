// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/vorlif/spreak"

	"github.com/fides-app/fides-places/internal/config"
	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geocode"
	"github.com/fides-app/fides-places/internal/geolocate"
	"github.com/fides-app/fides-places/internal/places"
)

// PlaceView wraps a Place with its outbound links.
type PlaceView struct {
	places.Place

	DirectionsURL string `json:"directions_url"`
	MapURL        string `json:"map_url"`
}

// Result is a finished search as it is rendered.
type Result struct {
	Origin    geo.Coordinate `json:"origin"`
	Source    string         `json:"source,omitempty"`
	Radius    int            `json:"radius_meters"`
	UpdatedAt time.Time      `json:"updated_at"`
	Places    []PlaceView    `json:"places"`
}

type Presenter struct {
	format    string
	template  *template.Template
	localizer *spreak.Localizer
}

func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	pres := &Presenter{
		format:    conf.Output.Format,
		localizer: loc,
	}
	if conf.Output.Format != config.FormatTemplate {
		return pres, nil
	}

	tpl, err := template.New("output").Funcs(pres.templateFuncMap()).Parse(conf.Output.Template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse output template: %w", err)
	}
	pres.template = tpl
	return pres, nil
}

func (p *Presenter) Format() string {
	return p.format
}

func (p *Presenter) BuildResult(origin geo.Coordinate, source string, radius int, found []places.Place,
	updated time.Time,
) Result {
	views := make([]PlaceView, 0, len(found))
	for _, place := range found {
		views = append(views, PlaceView{
			Place:         place,
			DirectionsURL: places.DirectionsURL(place),
			MapURL:        places.MapURL(place),
		})
	}
	return Result{
		Origin:    origin,
		Source:    source,
		Radius:    radius,
		UpdatedAt: updated,
		Places:    views,
	}
}

// Render writes the result in the configured output format.
func (p *Presenter) Render(w io.Writer, res Result) error {
	switch p.format {
	case config.FormatJSON:
		return p.JSON(w, res)
	case config.FormatTemplate:
		return p.Text(w, res)
	default:
		return p.Table(w, res)
	}
}

// JSON writes the result as a single JSON line.
func (p *Presenter) JSON(w io.Writer, res Result) error {
	if err := json.NewEncoder(w).Encode(res); err != nil {
		return fmt.Errorf("failed to encode search result: %w", err)
	}
	return nil
}

// Text renders the configured output template.
func (p *Presenter) Text(w io.Writer, res Result) error {
	if p.template == nil {
		return errors.New("no output template configured")
	}
	if err := p.template.Execute(w, res); err != nil {
		return fmt.Errorf("failed to render output template: %w", err)
	}
	return nil
}

// ErrorMessage returns a localized, user facing description of a failed search.
func (p *Presenter) ErrorMessage(err error) string {
	var locErr *geolocate.LocationError
	if errors.As(err, &locErr) {
		if msg, ok := locationMessages[locErr.Kind]; ok {
			return p.localizer.Get(msg)
		}
	}
	if errors.Is(err, geocode.ErrNotFound) {
		return p.localizer.Get(noAddress)
	}
	var searchErr *places.SearchError
	if errors.As(err, &searchErr) {
		return p.localizer.Get(searchFailed)
	}
	return err.Error()
}
