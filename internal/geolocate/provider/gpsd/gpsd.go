// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geolocate"
)

const (
	DefaultHost = "localhost"
	DefaultPort = "2947"
	name        = "gpsd"

	// maxFixAge is the age after which a buffered fix is no longer handed out.
	maxFixAge = time.Minute

	fallbackAccuracy3DFix = 10 // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25
)

var ErrConnectionClosed = errors.New("gpsd connection closed")

// session is the subset of a go-gpsd session the provider relies on.
type session interface {
	AddFilter(class string, f gpsd.Filter)
	Watch() chan bool
}

type update struct {
	fix geolocate.Fix
	at  time.Time
}

// GeolocationGPSDProvider reads TPV reports from a local gpsd. The connection is kept open
// between lookups, go-gpsd sessions cannot be closed by the caller.
type GeolocationGPSDProvider struct {
	name   string
	addr   string
	dialFn func(addr string) (session, error)
	nowFn  func() time.Time

	mu      sync.Mutex
	updates chan update
	done    chan bool
}

func NewGeolocationGPSDProvider(host, port string) *GeolocationGPSDProvider {
	if host == "" {
		host = DefaultHost
	}
	if port == "" {
		port = DefaultPort
	}
	return &GeolocationGPSDProvider{
		name:   name,
		addr:   net.JoinHostPort(host, port),
		dialFn: dial,
		nowFn:  time.Now,
	}
}

func (p *GeolocationGPSDProvider) Name() string {
	return p.name
}

// Locate waits for the first TPV report with at least a 2D fix.
func (p *GeolocationGPSDProvider) Locate(ctx context.Context) (geolocate.Fix, error) {
	updates, done, err := p.connect()
	if err != nil {
		return geolocate.Fix{}, geolocate.NewError(geolocate.Unsupported, p.name, err)
	}

	for {
		select {
		case u := <-updates:
			if p.nowFn().Sub(u.at) > maxFixAge {
				continue
			}
			return u.fix, nil
		case <-done:
			p.disconnect()
			return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name, ErrConnectionClosed)
		case <-ctx.Done():
			return geolocate.Fix{}, geolocate.FromContext(p.name, ctx.Err(), geolocate.Timeout)
		}
	}
}

func (p *GeolocationGPSDProvider) connect() (chan update, chan bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.updates != nil {
		return p.updates, p.done, nil
	}

	sess, err := p.dialFn(p.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to gpsd at %q: %w", p.addr, err)
	}

	// Single writer: the go-gpsd watch goroutine. A newer fix replaces an unread older one.
	updates := make(chan update, 1)
	sess.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok {
			return
		}
		fix, ok := fixFromReport(tpv)
		if !ok {
			return
		}
		fix.Source = p.name
		select {
		case <-updates:
		default:
		}
		updates <- update{fix: fix, at: p.nowFn()}
	})
	p.updates = updates
	p.done = sess.Watch()
	return p.updates, p.done, nil
}

func (p *GeolocationGPSDProvider) disconnect() {
	p.mu.Lock()
	p.updates = nil
	p.done = nil
	p.mu.Unlock()
}

// fixFromReport converts a TPV report with at least a 2D fix.
func fixFromReport(tpv *gpsd.TPVReport) (geolocate.Fix, bool) {
	if tpv == nil || tpv.Mode < gpsd.Mode2D {
		return geolocate.Fix{}, false
	}
	coord := geo.Coordinate{
		Lat: geo.Truncate(tpv.Lat, geo.TruncPrecision),
		Lon: geo.Truncate(tpv.Lon, geo.TruncPrecision),
	}
	if !coord.Valid() {
		return geolocate.Fix{}, false
	}
	return geolocate.Fix{
		Coordinate:     coord,
		AccuracyMeters: horizontalAccuracyMeters(tpv),
	}, true
}

func horizontalAccuracyMeters(tpv *gpsd.TPVReport) float64 {
	if tpv.Epx > 0 && tpv.Epy > 0 {
		return math.Hypot(tpv.Epx, tpv.Epy)
	}
	if tpv.Mode >= gpsd.Mode3D {
		return fallbackAccuracy3DFix
	}
	return fallbackAccuracy2DFix
}

func dial(addr string) (session, error) {
	sess, err := gpsd.Dial(addr)
	if err != nil {
		return nil, err
	}
	return sess, nil
}
