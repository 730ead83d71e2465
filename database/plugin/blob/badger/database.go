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

package badger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultBlockCacheSize = 256 << 20
	DefaultIndexCacheSize = 64 << 20
	// Encoded pot records stay well below this, so every account lives in
	// the LSM tree and the value log only holds superseded versions
	DefaultValueThreshold = 1024
	DefaultGcInterval     = 5 * time.Minute
	DefaultGcDiscardRatio = 0.5
)

// BlobStoreBadger holds the ledger's account table. It is in memory when
// no data directory is configured
type BlobStoreBadger struct {
	promRegistry   prometheus.Registerer
	db             *badger.DB
	logger         *slog.Logger
	metrics        *blobMetrics
	gcStop         chan struct{}
	gcWg           sync.WaitGroup
	dataDir        string
	gcInterval     time.Duration
	gcDiscardRatio float64
	blockCacheSize uint64
	indexCacheSize uint64
	valueThreshold int64
	gcEnabled      bool
}

// New opens the account table
func New(opts ...BlobStoreBadgerOptionFunc) (*BlobStoreBadger, error) {
	b := &BlobStoreBadger{
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
		valueThreshold: DefaultValueThreshold,
		gcInterval:     DefaultGcInterval,
		gcDiscardRatio: DefaultGcDiscardRatio,
		gcEnabled:      true,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	badgerOpts, err := b.badgerOptions()
	if err != nil {
		return nil, err
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open account table: %w", err)
	}
	b.db = db
	b.registerBlobMetrics()
	if b.gcEnabled {
		b.startGc()
	}
	return b, nil
}

func (b *BlobStoreBadger) badgerOptions() (badger.Options, error) {
	if b.dataDir == "" {
		// Nothing to reclaim in memory
		b.gcEnabled = false
		return badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(NewBadgerLogger(b.logger)).
			WithLoggingLevel(badger.WARNING).
			WithValueThreshold(b.valueThreshold), nil
	}
	dir := filepath.Join(b.dataDir, "accounts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return badger.Options{}, fmt.Errorf("create account table dir: %w", err)
	}
	return badger.DefaultOptions(dir).
		WithLogger(NewBadgerLogger(b.logger)).
		WithLoggingLevel(badger.WARNING).
		WithBlockCacheSize(int64(b.blockCacheSize)). //nolint:gosec
		WithIndexCacheSize(int64(b.indexCacheSize)). //nolint:gosec
		WithValueThreshold(b.valueThreshold).
		WithCompression(options.Snappy), nil
}

func (b *BlobStoreBadger) startGc() {
	stop := make(chan struct{})
	b.gcStop = stop
	b.gcWg.Add(1)
	go func() {
		defer b.gcWg.Done()
		ticker := time.NewTicker(b.gcInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.collectGarbage()
			case <-stop:
				return
			}
		}
	}()
}

// collectGarbage rewrites value log files until badger finds nothing more
// worth reclaiming
func (b *BlobStoreBadger) collectGarbage() {
	for {
		err := b.db.RunValueLogGC(b.gcDiscardRatio)
		if err == nil {
			b.metrics.gcRewrites.Inc()
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			b.logger.Warn(
				"account table GC failed",
				"component", "database",
				"error", err,
			)
		}
		return
	}
}

// Close stops GC and closes the account table
func (b *BlobStoreBadger) Close() error {
	if b.gcStop != nil {
		close(b.gcStop)
		b.gcWg.Wait()
		b.gcStop = nil
	}
	return b.db.Close()
}
