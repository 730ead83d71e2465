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
	"fmt"
	"sync"

	"github.com/blinklabs-io/potluck/database/plugin/blob/badger"
	"github.com/blinklabs-io/potluck/database/types"
)

// Txn wraps a transaction on exactly one of the two stores. Account state
// lives only in the blob store and the pot index only in the metadata store,
// so no operation ever needs to commit both
type Txn struct {
	db        *Database
	store     string
	handle    types.Txn
	blobTxn   *badger.AccountTxn
	lock      sync.Mutex
	finished  bool
	readWrite bool
}

func newBlobTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, store: "blob", readWrite: readWrite}
	if bs := db.Blob(); bs != nil {
		t.blobTxn = bs.NewTransaction(readWrite)
		t.handle = t.blobTxn
	}
	return t
}

func newMetadataTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, store: "metadata", readWrite: readWrite}
	if ms := db.Metadata(); ms != nil {
		t.handle = ms.Transaction()
	}
	return t
}

// Metadata returns the metadata transaction handle, or nil for a blob transaction
func (t *Txn) Metadata() types.Txn {
	if t.blobTxn != nil {
		return nil
	}
	return t.handle
}

// Blob returns the account table transaction, or nil for a metadata transaction
func (t *Txn) Blob() *badger.AccountTxn {
	return t.blobTxn
}

// Do runs fn inside the transaction. The transaction is committed when fn
// returns nil and rolled back otherwise
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if err2 := t.Rollback(); err2 != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				err2,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	if t.handle == nil {
		t.finished = true
		if t.readWrite {
			return types.ErrNoStoreAvailable
		}
		return nil
	}
	// Read-only transactions only need their resources released
	if !t.readWrite {
		return t.rollback()
	}
	t.finished = true
	if err := t.handle.Commit(); err != nil {
		_ = t.handle.Rollback()
		// Keep the conflict sentinel matchable for retry decisions
		if errors.Is(err, types.ErrBlobConflict) {
			return err
		}
		return fmt.Errorf("%s commit failed: %w", t.store, err)
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.handle == nil {
		return nil
	}
	if err := t.handle.Rollback(); err != nil {
		return fmt.Errorf("%s rollback: %w", t.store, err)
	}
	return nil
}

// Release rolls back an unfinished transaction and logs instead of returning
// any error, for use in defer statements
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"store", t.store,
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
