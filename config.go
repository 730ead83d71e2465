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

package potluck

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/potluck/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

// RunMode selects how the node behaves
type RunMode string

const (
	RunModeServe RunMode = "serve" // Wall clock, API enabled when configured (default)
	RunModeDev   RunMode = "dev"   // Allows shifting the clock to exercise time-locks
)

// Valid returns true if the RunMode is a known valid mode
func (m RunMode) Valid() bool {
	switch m {
	case RunModeServe, RunModeDev, "":
		return true
	default:
		return false
	}
}

// IsDevMode returns true if the mode enables development behaviors
func (m RunMode) IsDevMode() bool {
	return m == RunModeDev
}

type Config struct {
	promRegistry       prometheus.Registerer
	logger             *slog.Logger
	clock              ledger.Clock
	rentPolicy         *ledger.RentPolicy
	dataDir            string
	apiListenAddress   string
	runMode            RunMode
	blobCacheSize      uint64
	blobIndexCacheSize uint64
	shutdownTimeout    time.Duration
	reconcileInterval  time.Duration
	tracing            bool
	tracingStdout      bool
}

// isDevMode returns true if running in development mode
func (c *Config) isDevMode() bool {
	return c.runMode.IsDevMode()
}

func (n *Node) configValidate() error {
	if !n.config.runMode.Valid() {
		return fmt.Errorf("invalid run mode: %q", n.config.runMode)
	}
	if n.config.shutdownTimeout < 0 {
		return fmt.Errorf(
			"invalid shutdown timeout: %s",
			n.config.shutdownTimeout,
		)
	}
	if n.config.rentPolicy != nil && n.config.rentPolicy.UnitsPerByte == 0 {
		return errors.New("rent policy must charge at least one unit per byte")
	}
	// Only the system clock is trusted outside of dev mode
	if _, ok := n.config.clock.(ledger.SystemClock); !ok &&
		n.config.clock != nil &&
		!n.config.isDevMode() {
		return errors.New("a custom clock requires dev mode")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new potluck config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		runMode: RunModeServe,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. If not specified, metrics
// are not collected
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithClock specifies the ledger clock. Anything other than the system clock requires dev mode
func WithClock(clock ledger.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
	}
}

// WithRentPolicy overrides the default account rent policy
func WithRentPolicy(policy ledger.RentPolicy) ConfigOptionFunc {
	return func(c *Config) {
		c.rentPolicy = &policy
	}
}

// WithApiListenAddress specifies the listen address for the REST API. The API is disabled when empty
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithRunMode specifies the run mode
func WithRunMode(mode RunMode) ConfigOptionFunc {
	return func(c *Config) {
		c.runMode = mode
	}
}

// WithBlobCacheSizes sets the badger block and index cache sizes in bytes. Zero keeps the default
func WithBlobCacheSizes(blockCache, indexCache uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.blobCacheSize = blockCache
		c.blobIndexCacheSize = indexCache
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithReconcileInterval sets how often the pot index is rebuilt from the ledger. Negative disables it
func WithReconcileInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.reconcileInterval = interval
	}
}
