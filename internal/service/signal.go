// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// HandleSignals refreshes the search on SIGUSR1 and logs the current result on SIGUSR2.
func (s *Service) HandleSignals(ctx context.Context, sigChan chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGUSR1:
				s.logger.Debug("refresh requested by signal")
				s.trigger(ctx)
			case syscall.SIGUSR2:
				s.logStatus()
			}
		}
	}
}

func (s *Service) logStatus() {
	res, ok := s.LastResult()
	if !ok {
		s.logger.Info("no search completed yet", slog.String("state", s.State().String()))
		return
	}
	attrs := []any{
		slog.String("state", s.State().String()),
		slog.String("origin", res.Origin.String()),
		slog.String("source", res.Source),
		slog.Int("radius", res.Radius),
		slog.Int("places", len(res.Places)),
		slog.Time("updated", res.UpdatedAt),
	}
	if len(res.Places) > 0 {
		attrs = append(attrs, slog.String("nearest", res.Places[0].Name),
			slog.String("distance", res.Places[0].DistanceFormatted))
	}
	s.logger.Info("current search result", attrs...)
}
