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
	"github.com/blinklabs-io/potluck/database/models"
)

// GetPot returns the index row for a pot
func (d *Database) GetPot(
	address []byte,
	txn *Txn,
) (*models.Pot, error) {
	if txn == nil {
		return d.metadata.GetPot(address, nil)
	}
	return d.metadata.GetPot(address, txn.Metadata())
}

// SetPot writes the index row for a pot along with its contributor rows
func (d *Database) SetPot(
	pot *models.Pot,
	contributors []models.PotContributor,
	txn *Txn,
) error {
	if txn == nil {
		txn = d.MetadataTransaction(true)
		return txn.Do(func(txn *Txn) error {
			return d.SetPot(pot, contributors, txn)
		})
	}
	if err := d.metadata.SetPot(pot, txn.Metadata()); err != nil {
		return err
	}
	return d.metadata.SetPotContributors(
		pot.Address,
		contributors,
		txn.Metadata(),
	)
}

// ListPots returns a page of indexed pots and the total number matching
func (d *Database) ListPots(
	filter models.PotFilter,
	txn *Txn,
) ([]models.Pot, int64, error) {
	if txn == nil {
		return d.metadata.ListPots(filter, nil)
	}
	return d.metadata.ListPots(filter, txn.Metadata())
}

// GetPotContributors returns the indexed contributors of a pot
func (d *Database) GetPotContributors(
	address []byte,
	txn *Txn,
) ([]models.PotContributor, error) {
	if txn == nil {
		return d.metadata.GetPotContributors(address, nil)
	}
	return d.metadata.GetPotContributors(address, txn.Metadata())
}

// GetPotsByContributor returns the addresses of pots an identity is enrolled in
func (d *Database) GetPotsByContributor(
	contributor []byte,
	txn *Txn,
) ([][]byte, error) {
	if txn == nil {
		return d.metadata.GetPotsByContributor(contributor, nil)
	}
	return d.metadata.GetPotsByContributor(contributor, txn.Metadata())
}
