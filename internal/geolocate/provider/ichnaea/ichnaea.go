// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package ichnaea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/fides-app/fides-places/internal/geo"
	"github.com/fides-app/fides-places/internal/geolocate"
	"github.com/fides-app/fides-places/internal/http"
)

const (
	APIEndpoint   = "https://api.beacondb.net/v1/geolocate"
	LookupTimeout = time.Second * 5
	name          = "ichnaea"
)

var ErrNoAccuracy = errors.New("geolocate API returned a position without accuracy")

// GeolocationICHNAEAProvider scans the visible WiFi access points and asks an Ichnaea compatible
// geolocate API (BeaconDB by default) for the position.
type GeolocationICHNAEAProvider struct {
	name     string
	endpoint string
	http     *http.Client
	scanFn   func() ([]WirelessNetwork, error)
}

type APIResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

type WirelessNetwork struct {
	LastSeen       int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

type request struct {
	ConsiderIP   bool              `json:"considerIp"`
	Accesspoints []WirelessNetwork `json:"wifiAccessPoints,omitempty"`
}

func NewGeolocationICHNAEAProvider(http *http.Client) (*GeolocationICHNAEAProvider, error) {
	if http == nil {
		return nil, fmt.Errorf("http client is required")
	}
	wlan, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create wifi client: %w", err)
	}

	return &GeolocationICHNAEAProvider{
		name:     name,
		endpoint: APIEndpoint,
		http:     http,
		scanFn: func() ([]WirelessNetwork, error) {
			return wifiAccessPoints(wlan)
		},
	}, nil
}

func (p *GeolocationICHNAEAProvider) Name() string {
	return p.name
}

// Locate scans once and posts the access point list. A failed scan still queries the API, which
// then falls back to the IP address of the request.
func (p *GeolocationICHNAEAProvider) Locate(ctx context.Context) (geolocate.Fix, error) {
	var aps []WirelessNetwork
	if p.scanFn != nil {
		list, err := p.scanFn()
		if err == nil {
			aps = list
		}
	}

	bodyBuffer := bytes.NewBuffer(nil)
	if err := json.NewEncoder(bodyBuffer).Encode(request{ConsiderIP: true, Accesspoints: aps}); err != nil {
		return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name,
			fmt.Errorf("failed to encode wifi list to JSON: %w", err))
	}

	ctxHttp, cancelHttp := context.WithTimeout(ctx, LookupTimeout)
	defer cancelHttp()
	result := new(APIResult)
	if _, err := p.http.Post(ctxHttp, p.endpoint, result, bodyBuffer,
		map[string]string{"Content-Type": "application/json"}); err != nil {
		return geolocate.Fix{}, geolocate.FromContext(p.name,
			fmt.Errorf("failed to get geolocation data from API: %w", err), geolocate.PositionUnavailable)
	}
	if result.Accuracy <= 0 {
		return geolocate.Fix{}, geolocate.NewError(geolocate.PositionUnavailable, p.name, ErrNoAccuracy)
	}

	return geolocate.Fix{
		Coordinate: geo.Coordinate{
			Lat: geo.Truncate(result.Location.Latitude, geo.TruncPrecision),
			Lon: geo.Truncate(result.Location.Longitude, geo.TruncPrecision),
		},
		AccuracyMeters: geo.Truncate(result.Accuracy, geo.TruncPrecision),
		Source:         p.name,
	}, nil
}

func wifiAccessPoints(wlan *wifi.Client) ([]WirelessNetwork, error) {
	var list []WirelessNetwork

	ifaces, err := wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		aps, err := wlan.AccessPoints(iface)
		if err != nil {
			continue
		}
		list = append(list, wirelessNetworks(aps)...)
	}

	return list, nil
}

// wirelessNetworks converts scan results, skipping hidden networks and networks that opted out
// of location services with the "_nomap" suffix.
func wirelessNetworks(aps []*wifi.BSS) []WirelessNetwork {
	list := make([]WirelessNetwork, 0, len(aps))
	for _, ap := range aps {
		if ap == nil || ap.SSID == "" || ap.SSID[0] == '\x00' || strings.HasSuffix(ap.SSID, "_nomap") {
			continue
		}
		list = append(list, WirelessNetwork{
			SignalStrength: ap.Signal / 100,
			MACAddress:     ap.BSSID.String(),
			LastSeen:       ap.LastSeen.Milliseconds(),
		})
	}
	return list
}
