// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"sync"

	"github.com/fides-app/fides-places/internal/geolocate"
)

// recordingLocator remembers the last successful fix so the output can name the origin the
// searcher resolved.
type recordingLocator struct {
	locator geolocate.Locator

	mu   sync.RWMutex
	last geolocate.Fix
	set  bool
}

func (r *recordingLocator) Locate(ctx context.Context) (geolocate.Fix, error) {
	fix, err := r.locator.Locate(ctx)
	if err != nil {
		return fix, err
	}
	r.mu.Lock()
	r.last, r.set = fix, true
	r.mu.Unlock()
	return fix, nil
}

func (r *recordingLocator) Last() (geolocate.Fix, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.set
}
