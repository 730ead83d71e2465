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
	"slices"

	"github.com/blinklabs-io/potluck/database/types"
	badger "github.com/dgraph-io/badger/v4"
)

// Key layout: 'a' + address holds the encoded account, 'o' + owner + address
// is an empty marker listing the accounts an owner holds
const (
	accountKeyPrefix    byte = 'a'
	ownerIndexKeyPrefix byte = 'o'
)

var ErrTxnFinished = errors.New("transaction already finished")

func accountKey(addr []byte) []byte {
	return slices.Concat([]byte{accountKeyPrefix}, addr)
}

func ownerIndexPrefix(owner []byte) []byte {
	return slices.Concat([]byte{ownerIndexKeyPrefix}, owner)
}

func ownerIndexKey(owner []byte, addr []byte) []byte {
	return slices.Concat(ownerIndexPrefix(owner), addr)
}

// AccountTxn is one snapshot-isolated transaction on the account table.
// Writes become visible on Commit, and Commit fails with
// types.ErrBlobConflict when an account read by the transaction was
// changed by another commit in the meantime
type AccountTxn struct {
	store    *BlobStoreBadger
	tx       *badger.Txn
	finished bool
}

// NewTransaction starts an account table transaction
func (b *BlobStoreBadger) NewTransaction(update bool) *AccountTxn {
	return &AccountTxn{store: b, tx: b.db.NewTransaction(update)}
}

func (t *AccountTxn) check() error {
	if t == nil {
		return types.ErrNilTxn
	}
	if t.finished {
		return ErrTxnFinished
	}
	return nil
}

// GetRecord returns the encoded account stored at addr
func (t *AccountTxn) GetRecord(addr []byte) ([]byte, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	t.store.metrics.reads.Inc()
	item, err := t.tx.Get(accountKey(addr))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// PutRecord stores the encoded account at addr. A non-empty owner also lists
// addr under that owner. Owners are never reassigned, so the index needs no
// cleanup
func (t *AccountTxn) PutRecord(addr []byte, owner []byte, record []byte) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.metrics.writes.Inc()
	if err := t.tx.Set(accountKey(addr), record); err != nil {
		return err
	}
	if len(owner) == 0 {
		return nil
	}
	return t.tx.Set(ownerIndexKey(owner, addr), nil)
}

// AddressesByOwner returns the addresses of the accounts held by owner in
// ascending byte order
func (t *AccountTxn) AddressesByOwner(owner []byte) ([][]byte, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	prefix := ownerIndexPrefix(owner)
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = prefix
	iterOpts.PrefetchValues = false
	iter := t.tx.NewIterator(iterOpts)
	defer iter.Close()
	var ret [][]byte
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		key := iter.Item().KeyCopy(nil)
		ret = append(ret, key[len(prefix):])
	}
	return ret, nil
}

func (t *AccountTxn) Commit() error {
	if t.finished {
		return nil
	}
	// badger discards the transaction whether or not the commit succeeds
	t.finished = true
	if err := t.tx.Commit(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			t.store.metrics.conflicts.Inc()
			return types.ErrBlobConflict
		}
		return err
	}
	t.store.metrics.commits.Inc()
	return nil
}

func (t *AccountTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	t.tx.Discard()
	return nil
}
