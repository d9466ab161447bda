// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geolocate determines the position of the device running the search.
package geolocate

import (
	"context"
	"errors"
	"fmt"

	"github.com/fides-app/fides-places/internal/geo"
)

const (
	AccuracyExact   = 10
	AccuracyStreet  = 1000
	AccuracyZip     = 3000
	AccuracyCity    = 15000
	AccuracyRegion  = 100000
	AccuracyCountry = 300000
	AccuracyUnknown = 1000000
)

// Kind classifies why no position could be produced. Higher kinds are more meaningful to the
// user and win when several providers fail.
type Kind int

const (
	Unsupported Kind = iota
	PositionUnavailable
	Timeout
	PermissionDenied
)

var (
	ErrUnsupported         = errors.New("geolocation is not supported")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("geolocation timed out")
	ErrPermissionDenied    = errors.New("geolocation permission denied")
)

// Fix is a single position reported by a provider.
type Fix struct {
	geo.Coordinate
	AccuracyMeters float64
	Source         string
}

// Locator resolves the current device position.
type Locator interface {
	Locate(ctx context.Context) (Fix, error)
}

// Provider is a named Locator backed by one geolocation source of the host.
type Provider interface {
	Locator
	Name() string
}

// LocationError is returned by every Locator on failure.
type LocationError struct {
	Kind   Kind
	Source string
	Err    error
}

// NewError returns a LocationError of the given kind for the named source.
func NewError(kind Kind, source string, err error) *LocationError {
	return &LocationError{Kind: kind, Source: source, Err: err}
}

// FromContext maps a context error to a Timeout and anything else to the given fallback kind.
func FromContext(source string, err error, fallback Kind) *LocationError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(Timeout, source, err)
	}
	return NewError(fallback, source, err)
}

func (e *LocationError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

// Unwrap makes the kind sentinel and the underlying cause reachable via errors.Is.
func (e *LocationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

func (k Kind) String() string {
	switch k {
	case PermissionDenied:
		return "permission denied"
	case PositionUnavailable:
		return "position unavailable"
	case Timeout:
		return "timeout"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case PermissionDenied:
		return ErrPermissionDenied
	case PositionUnavailable:
		return ErrPositionUnavailable
	case Timeout:
		return ErrTimeout
	default:
		return ErrUnsupported
	}
}

// KindOf returns the kind of a LocationError in err's chain, and Unsupported otherwise.
func KindOf(err error) Kind {
	var locErr *LocationError
	if errors.As(err, &locErr) {
		return locErr.Kind
	}
	return Unsupported
}
