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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/potluck/api"
	"github.com/blinklabs-io/potluck/database"
	"github.com/blinklabs-io/potluck/event"
	"github.com/blinklabs-io/potluck/indexer"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNodeNotStarted = errors.New("node not started")
	ErrNodeStopped    = errors.New("node stopped")
)

type Node struct {
	eventBus       *event.EventBus
	db             *database.Database
	state          *ledger.State
	program        *pot.Program
	indexer        *indexer.Indexer
	api            *api.Api
	tracerProvider trace.TracerProvider
	ctx            context.Context
	cancel         context.CancelFunc
	shutdownFuncs  []func(context.Context) error
	config         Config
	done           chan struct{}
	startMutex     sync.Mutex
	started        bool
	shutdownOnce   sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config: cfg,
		done:   make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if n.config.clock == nil {
		n.config.clock = ledger.SystemClock{}
	}
	return n, nil
}

// Run starts the node and blocks until Stop is called
func (n *Node) Run() error {
	if err := n.Start(); err != nil {
		if errors.Is(err, ErrNodeStopped) {
			return nil
		}
		return err
	}
	// Wait for shutdown signal
	<-n.done
	return nil
}

// Start opens the database and starts every component without blocking
func (n *Node) Start() error {
	n.startMutex.Lock()
	if n.started {
		n.startMutex.Unlock()
		return errors.New("node already started")
	}
	select {
	case <-n.done:
		n.startMutex.Unlock()
		return ErrNodeStopped
	default:
	}
	n.started = true
	n.ctx, n.cancel = context.WithCancel(context.Background())
	err := n.start()
	n.startMutex.Unlock()
	if err != nil {
		// Release whatever was opened before the failure
		return errors.Join(err, n.Stop())
	}
	return nil
}

func (n *Node) start() error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:            n.config.dataDir,
		Logger:             n.config.logger,
		PromRegistry:       n.config.promRegistry,
		BlobCacheSize:      n.config.blobCacheSize,
		BlobIndexCacheSize: n.config.blobIndexCacheSize,
		BlobGc:             n.config.dataDir != "",
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	n.eventBus = event.NewEventBus(n.config.promRegistry, n.config.logger)
	n.eventBus.SubscribeFunc(pot.ReleasedEventType, n.logRelease)
	// Load ledger state
	state, err := ledger.NewState(ledger.StateConfig{
		Logger:       n.config.logger,
		Database:     n.db,
		Clock:        n.config.clock,
		PromRegistry: n.config.promRegistry,
		Rent:         n.config.rentPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	n.state = state
	if n.config.isDevMode() {
		n.config.logger.Warn(
			"running in dev mode, ledger clock is not trusted",
			"now", state.Now(),
		)
	}
	// Load pot program
	program, err := pot.NewProgram(pot.ProgramConfig{
		Logger:         n.config.logger,
		Ledger:         n.state,
		EventBus:       n.eventBus,
		PromRegistry:   n.config.promRegistry,
		TracerProvider: n.tracerProvider,
	})
	if err != nil {
		return fmt.Errorf("failed to load pot program: %w", err)
	}
	n.program = program
	// Start indexer
	idx, err := indexer.New(indexer.IndexerConfig{
		Logger:            n.config.logger,
		Database:          n.db,
		Program:           n.program,
		EventBus:          n.eventBus,
		PromRegistry:      n.config.promRegistry,
		ReconcileInterval: n.config.reconcileInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	n.indexer = idx
	if err := n.indexer.Start(n.ctx); err != nil {
		return fmt.Errorf("failed to start indexer: %w", err)
	}
	// Start API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.ApiConfig{
				ListenAddress:   n.config.apiListenAddress,
				ShutdownTimeout: n.shutdownTimeout(),
			},
			api.NewNodeAdapter(n.db, n.program, n.config.clock),
			n.config.logger,
		)
		if err := n.api.Start(n.ctx); err != nil {
			return fmt.Errorf("failed to start API: %w", err)
		}
	}
	return nil
}

// logRelease records every release at info level
func (n *Node) logRelease(evt event.Event) {
	released, ok := evt.Data.(pot.ReleasedEvent)
	if !ok {
		return
	}
	n.config.logger.Info(
		"pot released",
		"component", "node",
		"pot", released.Pot.String(),
		"authority", released.Authority.String(),
		"recipient", released.Recipient.String(),
		"amount", released.Amount,
		"signatures", released.SignatureCount,
	)
}

// Program returns the pot program, or nil before Start
func (n *Node) Program() *pot.Program {
	return n.program
}

// Ledger returns the ledger state, or nil before Start
func (n *Node) Ledger() *ledger.State {
	return n.state
}

// Database returns the underlying database, or nil before Start
func (n *Node) Database() *database.Database {
	return n.db
}

// EventBus returns the event bus, or nil before Start
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Indexer returns the pot indexer, or nil before Start
func (n *Node) Indexer() *indexer.Indexer {
	return n.indexer
}

// ApiAddr returns the address the API is listening on, or an empty string
func (n *Node) ApiAddr() string {
	if n.api == nil {
		return ""
	}
	return n.api.Addr()
}

// Airdrop credits amount to addr out of thin air. It is the only source
// of funds on a standalone node
func (n *Node) Airdrop(
	ctx context.Context,
	addr ledger.Address,
	amount uint64,
) error {
	if n.state == nil {
		return ErrNodeNotStarted
	}
	n.config.logger.Info(
		"airdrop",
		"component", "node",
		"address", addr.String(),
		"amount", amount,
	)
	return n.state.Airdrop(ctx, addr, amount)
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdownTimeout() time.Duration {
	// Default 30s if not configured
	if n.config.shutdownTimeout > 0 {
		return n.config.shutdownTimeout
	}
	return 30 * time.Second
}

func (n *Node) shutdown() error {
	// Wait for a concurrent Start to finish
	n.startMutex.Lock()
	defer n.startMutex.Unlock()
	ctx, cancel := context.WithTimeout(
		context.Background(),
		n.shutdownTimeout(),
	)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain the indexer
	n.config.logger.Debug("shutdown phase 2: draining indexer")

	if n.indexer != nil {
		n.indexer.Stop()
	}
	if n.cancel != nil {
		n.cancel()
	}

	// Phase 3: Close database
	n.config.logger.Debug("shutdown phase 3: closing database")

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 4: Cleanup resources
	n.config.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
