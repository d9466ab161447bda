// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoclue

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geolocate"
)

const (
	BusName         = "org.freedesktop.GeoClue2"
	ManagerPath     = "/org/freedesktop/GeoClue2/Manager"
	managerIface    = BusName + ".Manager"
	clientIface     = BusName + ".Client"
	locationIface   = BusName + ".Location"
	locationUpdated = clientIface + ".LocationUpdated"

	// AccuracyLevelExact is GCLUE_ACCURACY_LEVEL_EXACT.
	AccuracyLevelExact uint32 = 8

	DefaultDesktopID = "fides-places"
	name             = "geoclue"
)

const (
	errAccessDenied   = "org.freedesktop.DBus.Error.AccessDenied"
	errServiceUnknown = "org.freedesktop.DBus.Error.ServiceUnknown"
	errNameHasNoOwner = "org.freedesktop.DBus.Error.NameHasNoOwner"
	errUnknownMethod  = "org.freedesktop.DBus.Error.UnknownMethod"
	errUnknownObject  = "org.freedesktop.DBus.Error.UnknownObject"
)

var ErrSignalChannelClosed = errors.New("D-Bus signal channel closed")

// GeolocationGeoClueProvider asks GeoClue2 on the system bus for the device position. GeoClue
// consults its agent, which is where the user grants or refuses location access.
type GeolocationGeoClueProvider struct {
	name      string
	desktopID string
	connectFn func(ctx context.Context) (*dbus.Conn, error)
}

func NewGeolocationGeoClueProvider(desktopID string) *GeolocationGeoClueProvider {
	if desktopID == "" {
		desktopID = DefaultDesktopID
	}
	return &GeolocationGeoClueProvider{
		name:      name,
		desktopID: desktopID,
		connectFn: func(ctx context.Context) (*dbus.Conn, error) {
			return dbus.ConnectSystemBus(dbus.WithContext(ctx))
		},
	}
}

func (p *GeolocationGeoClueProvider) Name() string {
	return p.name
}

// Locate registers a GeoClue client, starts it and waits for the first LocationUpdated signal.
func (p *GeolocationGeoClueProvider) Locate(ctx context.Context) (geolocate.Fix, error) {
	conn, err := p.connectFn(ctx)
	if err != nil {
		return geolocate.Fix{}, geolocate.NewError(geolocate.Unsupported, p.name,
			fmt.Errorf("failed to connect to system bus: %w", err))
	}
	defer func() {
		_ = conn.Close()
	}()

	var clientPath dbus.ObjectPath
	manager := conn.Object(BusName, ManagerPath)
	if err = manager.CallWithContext(ctx, managerIface+".GetClient", 0).Store(&clientPath); err != nil {
		return geolocate.Fix{}, p.classify(fmt.Errorf("failed to get geoclue client: %w", err))
	}

	client := conn.Object(BusName, clientPath)
	if err = client.SetProperty(clientIface+".DesktopId", dbus.MakeVariant(p.desktopID)); err != nil {
		return geolocate.Fix{}, p.classify(fmt.Errorf("failed to set desktop id: %w", err))
	}
	if err = client.SetProperty(clientIface+".RequestedAccuracyLevel", dbus.MakeVariant(AccuracyLevelExact)); err != nil {
		return geolocate.Fix{}, p.classify(fmt.Errorf("failed to set requested accuracy level: %w", err))
	}

	if err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(clientPath),
		dbus.WithMatchInterface(clientIface),
		dbus.WithMatchMember("LocationUpdated"),
	); err != nil {
		return geolocate.Fix{}, p.classify(fmt.Errorf("failed to subscribe to location updates: %w", err))
	}
	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	if err = client.CallWithContext(ctx, clientIface+".Start", 0).Err; err != nil {
		return geolocate.Fix{}, p.classify(fmt.Errorf("failed to start geoclue client: %w", err))
	}
	defer client.Call(clientIface+".Stop", 0)

	for {
		select {
		case sig, ok := <-signals:
			if !ok {
				return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name, ErrSignalChannelClosed)
			}
			path, ok := locationPath(sig, clientPath)
			if !ok {
				continue
			}
			return p.readLocation(conn.Object(BusName, path))
		case <-ctx.Done():
			return geolocate.Fix{}, geolocate.FromContext(p.name, ctx.Err(), geolocate.Timeout)
		}
	}
}

func (p *GeolocationGeoClueProvider) readLocation(location dbus.BusObject) (geolocate.Fix, error) {
	var coord geo.Coordinate
	var acc float64
	var err error

	if coord.Lat, err = floatProperty(location, locationIface+".Latitude"); err != nil {
		return geolocate.Fix{}, p.classify(err)
	}
	if coord.Lon, err = floatProperty(location, locationIface+".Longitude"); err != nil {
		return geolocate.Fix{}, p.classify(err)
	}
	if acc, err = floatProperty(location, locationIface+".Accuracy"); err != nil {
		return geolocate.Fix{}, p.classify(err)
	}
	if !coord.Valid() {
		return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name,
			fmt.Errorf("geoclue reported invalid coordinates %s", coord))
	}

	return geolocate.Fix{
		Coordinate:     coord,
		AccuracyMeters: acc,
		Source:         p.name,
	}, nil
}

// classify maps a D-Bus failure to the kind of location error it represents.
func (p *GeolocationGeoClueProvider) classify(err error) *geolocate.LocationError {
	switch errorName(err) {
	case errAccessDenied:
		return geolocate.NewError(geolocate.PermissionDenied, p.name, err)
	case errServiceUnknown, errNameHasNoOwner, errUnknownMethod, errUnknownObject:
		return geolocate.NewError(geolocate.Unsupported, p.name, err)
	}
	return geolocate.FromContext(p.name, err, geolocate.PositionUnavailable)
}

// locationPath extracts the new location object path of a LocationUpdated signal sent by the
// given client.
func locationPath(sig *dbus.Signal, client dbus.ObjectPath) (dbus.ObjectPath, bool) {
	if sig == nil || sig.Name != locationUpdated || sig.Path != client || len(sig.Body) != 2 {
		return "", false
	}
	path, ok := sig.Body[1].(dbus.ObjectPath)
	if !ok || !path.IsValid() || path == "/" {
		return "", false
	}
	return path, true
}

func floatProperty(obj dbus.BusObject, property string) (float64, error) {
	variant, err := obj.GetProperty(property)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", property, err)
	}
	value, ok := variant.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected type %s for %s", variant.Signature(), property)
	}
	return value, nil
}

func errorName(err error) string {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return dbusErrPtr.Name
	}
	return ""
}
