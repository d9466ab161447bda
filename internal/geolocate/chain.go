// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fides-app/fides-places/internal/logger"
)

// DefaultTimeout bounds a single provider lookup.
const DefaultTimeout = time.Second * 10

// Chain asks its providers in order and returns the first fix.
type Chain struct {
	logger    *logger.Logger
	providers []Provider
	timeout   time.Duration
}

// NewChain returns a Chain over the given providers. A non-positive timeout uses DefaultTimeout.
func NewChain(log *logger.Logger, timeout time.Duration, providers ...Provider) *Chain {
	if log == nil {
		log = logger.Discard()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chain{
		logger:    log,
		providers: providers,
		timeout:   timeout,
	}
}

// Providers returns the names of the configured providers in lookup order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Locate returns the fix of the first provider that succeeds. If all of them fail, the most
// meaningful error is returned (permission denied, then timeout, then position unavailable,
// then unsupported).
func (c *Chain) Locate(ctx context.Context) (Fix, error) {
	var best *LocationError
	for _, provider := range c.providers {
		if err := ctx.Err(); err != nil {
			return Fix{}, FromContext("chain", err, Timeout)
		}

		fix, err := c.locate(ctx, provider)
		if err == nil {
			c.logger.Debug("geolocation succeeded", slog.String("source", fix.Source),
				slog.String("coordinates", fix.String()), slog.Float64("accuracy", fix.AccuracyMeters))
			return fix, nil
		}

		locErr := asLocationError(provider.Name(), err)
		c.logger.Debug("geolocation provider failed", slog.String("source", provider.Name()),
			slog.String("kind", locErr.Kind.String()), logger.Err(err))
		if best == nil || locErr.Kind > best.Kind {
			best = locErr
		}
	}

	if best == nil {
		return Fix{}, NewError(Unsupported, "chain", nil)
	}
	return Fix{}, best
}

func (c *Chain) locate(ctx context.Context, provider Provider) (Fix, error) {
	ctxLocate, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fix, err := provider.Locate(ctxLocate)
	if err != nil {
		return Fix{}, err
	}
	if !fix.Valid() {
		return Fix{}, NewError(PositionUnavailable, provider.Name(), nil)
	}
	if fix.Source == "" {
		fix.Source = provider.Name()
	}
	return fix, nil
}

func asLocationError(source string, err error) *LocationError {
	var locErr *LocationError
	if errors.As(err, &locErr) {
		return locErr
	}
	return FromContext(source, err, PositionUnavailable)
}
