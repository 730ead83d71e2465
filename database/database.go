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

package database

import (
	"errors"
	"io"
	"log/slog"

	"github.com/blinklabs-io/potluck/database/plugin/blob/badger"
	"github.com/blinklabs-io/potluck/database/plugin/metadata/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the settings used to open a Database
type Config struct {
	PromRegistry       prometheus.Registerer
	Logger             *slog.Logger
	DataDir            string
	BlobCacheSize      uint64
	BlobIndexCacheSize uint64
	// BlobGc enables periodic badger value log GC for disk-backed stores
	BlobGc bool
}

type Database struct {
	logger   *slog.Logger
	blob     *badger.BlobStoreBadger
	metadata *sqlite.MetadataStoreSqlite
	dataDir  string
}

// Blob returns the underling blob store instance
func (d *Database) Blob() *badger.BlobStoreBadger {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() *sqlite.MetadataStoreSqlite {
	return d.metadata
}

// BlobTransaction starts a transaction against the blob store only
func (d *Database) BlobTransaction(readWrite bool) *Txn {
	return newBlobTxn(d, readWrite)
}

// MetadataTransaction starts a transaction against the metadata store only
func (d *Database) MetadataTransaction(readWrite bool) *Txn {
	return newMetadataTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	// Close blob
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

// New creates a new database instance with optional persistence using the
// configured data directory. An empty data directory keeps everything in memory
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	blobOpts := []badger.BlobStoreBadgerOptionFunc{
		badger.WithDataDir(cfg.DataDir),
		badger.WithLogger(logger),
		badger.WithPromRegistry(cfg.PromRegistry),
		badger.WithGc(cfg.BlobGc),
	}
	if cfg.BlobCacheSize > 0 {
		blobOpts = append(blobOpts, badger.WithBlockCacheSize(cfg.BlobCacheSize))
	}
	if cfg.BlobIndexCacheSize > 0 {
		blobOpts = append(blobOpts, badger.WithIndexCacheSize(cfg.BlobIndexCacheSize))
	}
	blobDb, err := badger.New(blobOpts...)
	if err != nil {
		return nil, err
	}
	metadataDb, err := sqlite.New(
		sqlite.WithDataDir(cfg.DataDir),
		sqlite.WithLogger(logger),
		sqlite.WithPromRegistry(cfg.PromRegistry),
	)
	if err != nil {
		_ = blobDb.Close()
		return nil, err
	}
	db := &Database{
		logger:   logger,
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  cfg.DataDir,
	}
	return db, nil
}
