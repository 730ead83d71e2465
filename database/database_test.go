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

package database_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/potluck/database"
	"github.com/blinklabs-io/potluck/database/models"
	"github.com/blinklabs-io/potluck/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dbConfig = &database.Config{
	Logger:       nil,
	PromRegistry: nil,
	DataDir:      "",
}

func addr(b byte) []byte {
	ret := make([]byte, 32)
	ret[31] = b
	return ret
}

func TestAccountRoundTrip(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	txn := db.BlobTransaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		return db.SetAccount(addr(1), &database.Account{
			Owner:   addr(200),
			Balance: 1234,
			Space:   64,
			Data:    []byte{0xde, 0xad},
		}, txn)
	})
	require.NoError(t, err)

	account, err := db.GetAccount(addr(1), nil)
	require.NoError(t, err)
	assert.Equal(t, addr(200), account.Owner)
	assert.Equal(t, uint64(1234), account.Balance)
	assert.Equal(t, uint32(64), account.Space)
	assert.Equal(t, []byte{0xde, 0xad}, account.Data)

	_, err = db.GetAccount(addr(2), nil)
	require.ErrorIs(t, err, database.ErrAccountNotFound)
}

func TestTxnDoRollsBackOnError(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	errTest := errors.New("test failure")
	txn := db.BlobTransaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		if err := db.SetAccount(addr(1), &database.Account{Balance: 5}, txn); err != nil {
			return err
		}
		return errTest
	})
	require.ErrorIs(t, err, errTest)

	_, err = db.GetAccount(addr(1), nil)
	require.ErrorIs(t, err, database.ErrAccountNotFound)
}

func TestSetAccountRequiresTxn(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	err = db.SetAccount(addr(1), &database.Account{}, nil)
	require.ErrorIs(t, err, types.ErrNilTxn)
}

func TestAccountsByOwner(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	owner := addr(100)
	txn := db.BlobTransaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		for _, a := range [][]byte{addr(3), addr(1), addr(2)} {
			if err := db.SetAccount(a, &database.Account{Owner: owner}, txn); err != nil {
				return err
			}
		}
		// Unowned wallet and an account of a different owner
		if err := db.SetAccount(addr(4), &database.Account{Balance: 10}, txn); err != nil {
			return err
		}
		return db.SetAccount(addr(5), &database.Account{Owner: addr(101)}, txn)
	})
	require.NoError(t, err)

	entries, err := db.AccountsByOwner(owner, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, addr(1), entries[0].Address)
	assert.Equal(t, addr(2), entries[1].Address)
	assert.Equal(t, addr(3), entries[2].Address)
}

func TestConcurrentBlobWritesConflict(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	txn1 := db.BlobTransaction(true)
	txn2 := db.BlobTransaction(true)
	_, err = db.GetAccount(addr(1), txn1)
	require.ErrorIs(t, err, database.ErrAccountNotFound)
	_, err = db.GetAccount(addr(1), txn2)
	require.ErrorIs(t, err, database.ErrAccountNotFound)
	require.NoError(t, db.SetAccount(addr(1), &database.Account{Balance: 1}, txn1))
	require.NoError(t, db.SetAccount(addr(1), &database.Account{Balance: 2}, txn2))
	require.NoError(t, txn1.Commit())
	require.ErrorIs(t, txn2.Commit(), types.ErrBlobConflict)

	account, err := db.GetAccount(addr(1), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), account.Balance)
}

func TestPotIndex(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	potAddr := addr(1)
	err = db.SetPot(
		&models.Pot{
			Address:          potAddr,
			Authority:        addr(9),
			Name:             "roof",
			ContributorCount: 2,
		},
		[]models.PotContributor{
			{PotAddress: potAddr, Contributor: addr(9), Position: 0},
			{PotAddress: potAddr, Contributor: addr(10), Position: 1},
		},
		nil,
	)
	require.NoError(t, err)

	pot, err := db.GetPot(potAddr, nil)
	require.NoError(t, err)
	assert.Equal(t, "roof", pot.Name)

	contributors, err := db.GetPotContributors(potAddr, nil)
	require.NoError(t, err)
	require.Len(t, contributors, 2)

	pots, total, err := db.ListPots(models.PotFilter{Limit: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, pots, 1)

	potAddrs, err := db.GetPotsByContributor(addr(10), nil)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{potAddr}, potAddrs)
}

func TestTxnStoreHandles(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	blobTxn := db.BlobTransaction(false)
	assert.NotNil(t, blobTxn.Blob())
	assert.Nil(t, blobTxn.Metadata())
	require.NoError(t, blobTxn.Commit())
	// Finished transactions ignore further calls
	require.NoError(t, blobTxn.Rollback())
	require.NoError(t, blobTxn.Commit())

	metaTxn := db.MetadataTransaction(true)
	assert.Nil(t, metaTxn.Blob())
	assert.NotNil(t, metaTxn.Metadata())
	metaTxn.Release()
	require.NoError(t, metaTxn.Commit())
}
