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

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/potluck/database/types"
)

var ErrAccountNotFound = errors.New("account not found")

// Account is the stored envelope for a ledger account: who owns it, the
// funds it holds, the data space reserved for it and its data
type Account struct {
	cbor.StructAsArray
	Owner   []byte
	Balance uint64
	Space   uint32
	Data    []byte
}

// AccountEntry pairs an account with its address, as returned by scans
type AccountEntry struct {
	Address []byte
	Account Account
}

// GetAccount returns the account stored at addr
func (d *Database) GetAccount(
	addr []byte,
	txn *Txn,
) (*Account, error) {
	if txn == nil {
		txn = d.BlobTransaction(false)
		defer txn.Release()
	}
	val, err := txn.Blob().GetRecord(addr)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	ret := &Account{}
	if _, err := cbor.Decode(val, ret); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return ret, nil
}

// SetAccount stores the account at addr. Accounts with an owner are also
// recorded in the owner index so they can be enumerated
func (d *Database) SetAccount(
	addr []byte,
	account *Account,
	txn *Txn,
) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	val, err := cbor.Encode(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	return txn.Blob().PutRecord(addr, account.Owner, val)
}

// AccountsByOwner returns every account owned by owner, in address order
func (d *Database) AccountsByOwner(
	owner []byte,
	txn *Txn,
) ([]AccountEntry, error) {
	if txn == nil {
		txn = d.BlobTransaction(false)
		defer txn.Release()
	}
	addrs, err := txn.Blob().AddressesByOwner(owner)
	if err != nil {
		return nil, err
	}
	ret := make([]AccountEntry, 0, len(addrs))
	for _, addr := range addrs {
		account, err := d.GetAccount(addr, txn)
		if err != nil {
			return nil, fmt.Errorf("owner index entry %x: %w", addr, err)
		}
		ret = append(ret, AccountEntry{Address: addr, Account: *account})
	}
	return ret, nil
}
