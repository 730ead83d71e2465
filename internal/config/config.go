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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "potluck.config"

const (
	DefaultShutdownTimeout   = "30s"
	DefaultReconcileInterval = "5m"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// RunMode represents the operational mode of the potluck node
type RunMode string

const (
	RunModeServe RunMode = "serve" // Wall clock ledger (default)
	RunModeDev   RunMode = "dev"   // Development mode (clock offset allowed)
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

// tempConfig allows the settings to be nested under a top-level config key
type tempConfig struct {
	Config yaml.Node `yaml:"config,omitempty"`
}

type Config struct {
	DatabasePath         string  `yaml:"databasePath"         split_words:"true"`
	BindAddr             string  `yaml:"bindAddr"             split_words:"true"`
	ShutdownTimeout      string  `yaml:"shutdownTimeout"      split_words:"true"`
	ReconcileInterval    string  `yaml:"reconcileInterval"    split_words:"true"`
	ClockOffset          string  `yaml:"clockOffset"          split_words:"true"`
	RunMode              RunMode `yaml:"runMode"              split_words:"true"`
	ApiPort              uint    `yaml:"apiPort"              split_words:"true"`
	MetricsPort          uint    `yaml:"metricsPort"          split_words:"true"`
	RentUnitsPerByte     uint64  `yaml:"rentUnitsPerByte"     split_words:"true"`
	RentOverheadBytes    uint64  `yaml:"rentOverheadBytes"    split_words:"true"`
	BadgerBlockCacheSize uint64  `yaml:"badgerBlockCacheSize" split_words:"true"`
	BadgerIndexCacheSize uint64  `yaml:"badgerIndexCacheSize" split_words:"true"`
	Tracing              bool    `yaml:"tracing"`
	TracingStdout        bool    `yaml:"tracingStdout"        split_words:"true"`
}

// DefaultConfig returns the built-in configuration values
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:      ".potluck",
		BindAddr:          "0.0.0.0",
		ShutdownTimeout:   DefaultShutdownTimeout,
		ReconcileInterval: DefaultReconcileInterval,
		RunMode:           RunModeServe,
		ApiPort:           3000,
		MetricsPort:       12799,
		RentUnitsPerByte:  10,
		RentOverheadBytes: 128,
	}
}

var globalConfig = DefaultConfig()

// ShutdownTimeoutDuration parses ShutdownTimeout
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	return parseDuration("shutdownTimeout", c.ShutdownTimeout)
}

// ReconcileIntervalDuration parses ReconcileInterval. A negative value
// disables periodic reconciliation
func (c *Config) ReconcileIntervalDuration() (time.Duration, error) {
	return parseDuration("reconcileInterval", c.ReconcileInterval)
}

// ClockOffsetDuration parses ClockOffset. An empty value is no offset
func (c *Config) ClockOffsetDuration() (time.Duration, error) {
	return parseDuration("clockOffset", c.ClockOffset)
}

func parseDuration(name string, val string) (time.Duration, error) {
	if val == "" {
		return 0, nil
	}
	ret, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, val, err)
	}
	return ret, nil
}

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	if !c.RunMode.Valid() {
		return fmt.Errorf(
			"invalid runMode: %q (must be 'serve' or 'dev')",
			c.RunMode,
		)
	}
	if c.RentUnitsPerByte == 0 {
		return errors.New("rentUnitsPerByte must be greater than zero")
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.ReconcileIntervalDuration(); err != nil {
		return err
	}
	offset, err := c.ClockOffsetDuration()
	if err != nil {
		return err
	}
	if offset != 0 && !c.RunMode.IsDevMode() {
		return errors.New("clockOffset is only allowed in dev mode")
	}
	return nil
}

func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.potluck/potluck.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".potluck", "potluck.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/potluck/potluck.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/potluck/potluck.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// If config section exists, use it for main config
		if !tempCfg.Config.IsZero() {
			// Overlay config values onto existing defaults
			if err := tempCfg.Config.Decode(cfg); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			err = yaml.Unmarshal(buf, cfg)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("potluck", cfg)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	if cfg.RunMode == "" {
		cfg.RunMode = RunModeServe
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

func GetConfig() *Config {
	return globalConfig
}
