// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricsPath = "/metrics"

	metricsReadHeaderTimeout = time.Second * 5
	metricsShutdownTimeout   = time.Second * 5
)

// MetricsHandler serves the search metrics and the Go runtime collectors.
func (s *Service) MetricsHandler() stdhttp.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// serveMetrics exposes the metrics handler until the context is canceled.
func (s *Service) serveMetrics(ctx context.Context, addr string) error {
	mux := stdhttp.NewServeMux()
	mux.Handle(MetricsPath, s.MetricsHandler())
	server := &stdhttp.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
	}()

	s.logger.Info("serving metrics", slog.String("addr", addr), slog.String("path", MetricsPath))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}
