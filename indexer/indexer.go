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

package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/potluck/database"
	"github.com/blinklabs-io/potluck/database/models"
	"github.com/blinklabs-io/potluck/database/types"
	"github.com/blinklabs-io/potluck/event"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultReconcileInterval = 5 * time.Minute
	// Subscriber queue size per event type
	eventQueueSize = 1000
	updateTimeout  = 30 * time.Second
)

type IndexerConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	Program      *pot.Program
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	// ReconcileInterval controls how often the full index is rebuilt to
	// recover from dropped events. Zero uses the default, negative disables
	ReconcileInterval time.Duration
}

// Indexer maintains the queryable pot index in the metadata store. Ledger
// accounts remain the source of truth: every update re-reads them
type Indexer struct {
	config         IndexerConfig
	db             *database.Database
	program        *pot.Program
	metrics        indexerMetrics
	updateMutex    sync.Mutex
	timerMutex     sync.Mutex
	timerReconcile *time.Timer
	reconcileMutex sync.Mutex
	subscriptions  map[event.EventType]event.EventSubscriberId
	workersWg      sync.WaitGroup
	started        bool
	stopped        bool
}

func New(cfg IndexerConfig) (*Indexer, error) {
	if cfg.Database == nil {
		return nil, errors.New("no database provided")
	}
	if cfg.Program == nil {
		return nil, errors.New("no program provided")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = DefaultReconcileInterval
	}
	i := &Indexer{
		config:        cfg,
		db:            cfg.Database,
		program:       cfg.Program,
		subscriptions: make(map[event.EventType]event.EventSubscriberId),
	}
	i.metrics.init(cfg.PromRegistry)
	return i, nil
}

// Start builds the index from scratch and then follows pot events
func (i *Indexer) Start(ctx context.Context) error {
	i.timerMutex.Lock()
	if i.started {
		i.timerMutex.Unlock()
		return errors.New("indexer already started")
	}
	i.started = true
	i.timerMutex.Unlock()
	// Subscribe before the initial scan so no update can fall in between
	if i.config.EventBus != nil {
		for _, eventType := range pot.EventTypes {
			subId, ch := i.config.EventBus.SubscribeBuffered(eventType, eventQueueSize)
			i.subscriptions[eventType] = subId
			i.workersWg.Add(1)
			go i.processEvents(ch)
		}
	}
	if err := i.Reindex(ctx); err != nil {
		return err
	}
	i.scheduleReconcile()
	return nil
}

// Stop unsubscribes from events and waits for in-flight updates
func (i *Indexer) Stop() {
	i.timerMutex.Lock()
	if i.stopped || !i.started {
		i.timerMutex.Unlock()
		return
	}
	i.stopped = true
	if i.timerReconcile != nil {
		i.timerReconcile.Stop()
		i.timerReconcile = nil
	}
	i.timerMutex.Unlock()
	// Wait for a running reconcile to finish
	i.reconcileMutex.Lock()
	i.reconcileMutex.Unlock() //nolint:staticcheck
	if i.config.EventBus != nil {
		for eventType, subId := range i.subscriptions {
			i.config.EventBus.Unsubscribe(eventType, subId)
		}
	}
	i.workersWg.Wait()
}

func (i *Indexer) isStopped() bool {
	i.timerMutex.Lock()
	defer i.timerMutex.Unlock()
	return i.stopped
}

func (i *Indexer) processEvents(ch <-chan event.Event) {
	defer i.workersWg.Done()
	for evt := range ch {
		data, ok := evt.Data.(pot.PotEvent)
		if !ok {
			i.config.Logger.Warn(
				fmt.Sprintf("unexpected event data type %T", evt.Data),
				"component", "indexer",
				"type", evt.Type,
			)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		if err := i.IndexPot(ctx, data.PotAddress()); err != nil {
			i.config.Logger.Error(
				"failed to index pot",
				"component", "indexer",
				"pot", data.PotAddress().String(),
				"type", evt.Type,
				"error", err,
			)
		}
		cancel()
	}
}

func (i *Indexer) scheduleReconcile() {
	if i.config.ReconcileInterval < 0 {
		return
	}
	i.timerMutex.Lock()
	defer i.timerMutex.Unlock()
	if i.stopped {
		return
	}
	i.timerReconcile = time.AfterFunc(i.config.ReconcileInterval, func() {
		i.reconcileMutex.Lock()
		defer i.reconcileMutex.Unlock()
		if i.isStopped() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()
		if err := i.Reindex(ctx); err != nil {
			i.config.Logger.Error(
				"failed to reconcile pot index",
				"component", "indexer",
				"error", err,
			)
		}
		i.scheduleReconcile()
	})
}

// Reindex rewrites the index rows of every pot
func (i *Indexer) Reindex(ctx context.Context) error {
	start := time.Now()
	pots, err := i.program.ListPots(ctx)
	if err != nil {
		return fmt.Errorf("list pots: %w", err)
	}
	for _, item := range pots {
		if err := i.IndexPot(ctx, item.Address); err != nil {
			return err
		}
	}
	i.metrics.reindexTotal.Inc()
	i.metrics.indexedPots.Set(float64(len(pots)))
	i.config.Logger.Debug(
		"reindexed pots",
		"component", "indexer",
		"count", len(pots),
		"duration", time.Since(start),
	)
	return nil
}

// IndexPot rewrites the index rows of the pot at addr from its current
// ledger state
func (i *Indexer) IndexPot(ctx context.Context, addr ledger.Address) error {
	// Serialize read and write so a slower update cannot overwrite a newer one
	i.updateMutex.Lock()
	defer i.updateMutex.Unlock()
	snapshot, err := i.program.PotSnapshot(ctx, addr)
	if err != nil {
		i.metrics.updates.WithLabelValues("failed").Inc()
		return fmt.Errorf("read pot %s: %w", addr, err)
	}
	row, contributors := potRows(snapshot)
	txn := i.db.MetadataTransaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		return i.db.SetPot(row, contributors, txn)
	})
	if err != nil {
		i.metrics.updates.WithLabelValues("failed").Inc()
		return fmt.Errorf("write pot %s: %w", addr, err)
	}
	i.metrics.updates.WithLabelValues("ok").Inc()
	return nil
}

func potRows(s *pot.Snapshot) (*models.Pot, []models.PotContributor) {
	p := s.Pot
	row := &models.Pot{
		Address:          p.Address.Bytes(),
		Authority:        p.Authority.Bytes(),
		Name:             p.Name,
		Description:      p.Description,
		TargetAmount:     types.Uint64(p.TargetAmount),
		TotalContributed: types.Uint64(p.TotalContributed),
		Balance:          types.Uint64(s.Balance),
		UnlockTimestamp:  p.UnlockTimestamp,
		CreatedTime:      p.CreatedAt,
		SignersRequired:  p.SignersRequired,
		// Set sizes are bounded well below 256
		SignatureCount:   uint8(len(p.Signatures)),  //nolint:gosec
		ContributorCount: uint8(len(p.Contributors)), //nolint:gosec
		Released:         p.IsReleased,
	}
	if p.IsReleased {
		row.Recipient = p.Recipient.Bytes()
		row.ReleasedAt = p.ReleasedAt
	}
	contributors := make([]models.PotContributor, 0, len(p.Contributors))
	for idx, identity := range p.Contributors {
		item := models.PotContributor{
			PotAddress:  p.Address.Bytes(),
			Contributor: identity.Bytes(),
			Position:    uint8(idx), //nolint:gosec
			Signed:      p.HasSigned(identity),
		}
		if contrib := s.Contributor(identity); contrib != nil {
			item.TotalContributed = types.Uint64(contrib.TotalContributed)
			item.ContributionCount = contrib.ContributionCount
			item.JoinedAt = contrib.JoinedAt
			item.LastContributionAt = contrib.LastContributionAt
		}
		contributors = append(contributors, item)
	}
	return row, contributors
}
