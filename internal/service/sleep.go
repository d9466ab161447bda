// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/fides-app/fides-places/internal/logger"
)

const (
	login1Interface = "org.freedesktop.login1.Manager"
	login1Member    = "PrepareForSleep"

	resumeDebounce   = time.Second * 2
	resumeSettleTime = time.Second * 10
	busRetryDelay    = time.Second * 5
	busSignalBuffer  = 8
)

// resumeBus is the part of a system bus connection the resume watcher needs.
type resumeBus interface {
	AddMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
	Close() error
}

func connectResumeBus(ctx context.Context) (resumeBus, error) {
	return dbus.ConnectSystemBus(dbus.WithContext(ctx))
}

// monitorSleepResume refreshes the search when logind reports a resume, the device has likely
// moved while it was suspended. A dropped bus connection is re-established.
func (s *Service) monitorSleepResume(ctx context.Context) {
	s.watchResume(ctx, connectResumeBus)
}

func (s *Service) watchResume(ctx context.Context, connect func(context.Context) (resumeBus, error)) {
	var lastResume time.Time
	for {
		bus, err := connect(ctx)
		if err == nil {
			lastResume = s.listenResume(ctx, bus, lastResume)
		} else {
			s.logger.Debug("system bus unavailable, resume refresh disabled for now", logger.Err(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(busRetryDelay):
		}
	}
}

// listenResume consumes PrepareForSleep signals until the connection drops or the context ends.
// It returns the time of the last handled resume for debouncing across reconnects.
func (s *Service) listenResume(ctx context.Context, bus resumeBus, lastResume time.Time) time.Time {
	defer func() {
		if err := bus.Close(); err != nil {
			s.logger.Debug("failed to close system bus connection", logger.Err(err))
		}
	}()

	if err := bus.AddMatchSignal(dbus.WithMatchInterface(login1Interface),
		dbus.WithMatchMember(login1Member)); err != nil {
		s.logger.Warn("failed to subscribe to sleep signals", slog.String("interface", login1Interface),
			logger.Err(err))
		return lastResume
	}
	signals := make(chan *dbus.Signal, busSignalBuffer)
	bus.Signal(signals)
	defer bus.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return lastResume
		case sig, ok := <-signals:
			if !ok {
				return lastResume
			}
			if !isResume(sig) || time.Since(lastResume) < resumeDebounce {
				continue
			}
			lastResume = time.Now()
			s.afterResume(ctx)
		}
	}
}

// afterResume waits for the network to settle and triggers a refresh.
func (s *Service) afterResume(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(resumeSettleTime):
	}
	s.logger.Debug("system resumed, refreshing nearby places")
	s.trigger(ctx)
}

// isResume reports whether sig is a PrepareForSleep(false) signal.
func isResume(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != login1Interface+"."+login1Member || len(sig.Body) != 1 {
		return false
	}
	sleeping, ok := sig.Body[0].(bool)
	return ok && !sleeping
}
