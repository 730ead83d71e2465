// Copyright 2025 Blink Labs Software
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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/potluck"
	"github.com/blinklabs-io/potluck/internal/config"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NodeOptions translates the loaded config into node options
func NodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
) ([]potluck.ConfigOptionFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, err
	}
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	reconcileInterval, err := cfg.ReconcileIntervalDuration()
	if err != nil {
		return nil, err
	}
	clockOffset, err := cfg.ClockOffsetDuration()
	if err != nil {
		return nil, err
	}
	opts := []potluck.ConfigOptionFunc{
		potluck.WithLogger(logger),
		potluck.WithDatabasePath(cfg.DatabasePath),
		potluck.WithRunMode(potluck.RunMode(cfg.RunMode)),
		potluck.WithRentPolicy(ledger.RentPolicy{
			UnitsPerByte:  cfg.RentUnitsPerByte,
			OverheadBytes: cfg.RentOverheadBytes,
		}),
		potluck.WithBlobCacheSizes(
			cfg.BadgerBlockCacheSize,
			cfg.BadgerIndexCacheSize,
		),
		potluck.WithShutdownTimeout(shutdownTimeout),
		potluck.WithReconcileInterval(reconcileInterval),
		potluck.WithTracing(cfg.Tracing),
		potluck.WithTracingStdout(cfg.TracingStdout),
	}
	if clockOffset != 0 {
		logger.Warn(
			"shifting ledger clock",
			"component", "node",
			"offset", clockOffset.String(),
		)
		opts = append(
			opts,
			potluck.WithClock(ledger.OffsetClock{Offset: clockOffset}),
		)
	}
	return opts, nil
}

// Open starts a node without network listeners for one-shot commands. The
// caller must Stop it
func Open(cfg *config.Config, logger *slog.Logger) (*potluck.Node, error) {
	opts, err := NodeOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	// Index updates are driven by events, a periodic rebuild is not needed
	opts = append(opts, potluck.WithReconcileInterval(-1))
	n, err := potluck.New(potluck.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	if err := n.Start(); err != nil {
		return nil, err
	}
	return n, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := NodeOptions(cfg, logger)
	if err != nil {
		return err
	}
	shutdownTimeout, _ := cfg.ShutdownTimeoutDuration()
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	if cfg.ApiPort > 0 {
		opts = append(
			opts,
			potluck.WithApiListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
			),
		)
	}
	// Enable metrics with default prometheus registry
	opts = append(opts, potluck.WithPrometheusRegistry(prometheus.DefaultRegisterer))
	n, err := potluck.New(potluck.NewConfig(opts...))
	if err != nil {
		return err
	}
	// Metrics and debug listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		logger.Info(
			"serving prometheus metrics on "+fmt.Sprintf(
				"%s:%d",
				cfg.BindAddr,
				cfg.MetricsPort,
			),
			"component",
			"node",
		)
		metricsServer = &http.Server{
			Addr: fmt.Sprintf(
				"%s:%d",
				cfg.BindAddr,
				cfg.MetricsPort,
			),
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	errChan := make(chan error, 2)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("failed to start metrics listener: %w", err)
			}
		}()
	}
	// Run node in goroutine
	go func() {
		errChan <- n.Run()
	}()

	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}
		if err := n.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		return nil
	}

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		if err := shutdown(); err != nil {
			return err
		}
		logger.Info("shutdown complete")
		return nil
	case err := <-errChan:
		if err == nil {
			logger.Info("node stopped")
			return shutdown()
		}
		logger.Error("node error", "error", err)
		signalCtxStop()
		if stopErr := shutdown(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error",
				stopErr,
			)
		}
		return err
	}
}
