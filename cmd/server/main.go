// Copyright 2026 The ClubLedger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/clubledger/clubledger/internal/app"
	"github.com/clubledger/clubledger/internal/config"
	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/observability/metrics"
	"github.com/clubledger/clubledger/internal/observability/tracing"
	transportHTTP "github.com/clubledger/clubledger/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTEL:        cfg.Observability.OTELEnabled,
	})
	slog.Info("starting clubledger",
		logger.String("store", cfg.Database.Driver),
		logger.String("tenancy_mode", cfg.Tenancy.Mode),
	)

	ctx := context.Background()

	// Initialize tracer
	tp, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Initialize meter and engine instruments
	var instruments *metrics.Instruments
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
	})
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	} else {
		defer meter.Shutdown(ctx)
		if instruments, err = metrics.NewInstruments(meter); err != nil {
			slog.Error("failed to register instruments", logger.Error(err))
		}
	}

	// Storage and services
	ledger, err := app.New(ctx, cfg, instruments)
	if err != nil {
		slog.Error("failed to initialize application", logger.Error(err))
		os.Exit(1)
	}
	defer ledger.Close()
	if ledger.Cache != nil {
		slog.Info("ranking cache enabled", logger.Component("redis"))
	}

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	handler := transportHTTP.NewHandler(ledger.HTTPDependencies())
	router := transportHTTP.NewRouter(handler, rateLimiter)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting http server",
			logger.Component("server"),
			logger.Operation("listen"),
			logger.String("addr", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		slog.Error("server error", logger.Error(err))
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}
