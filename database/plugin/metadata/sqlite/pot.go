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

package sqlite

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/potluck/database/models"
	"github.com/blinklabs-io/potluck/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPot returns the index row for a pot address
func (d *MetadataStoreSqlite) GetPot(
	address []byte,
	txn types.Txn,
) (*models.Pot, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Pot{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrPotNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetPot creates or replaces the index row for a pot
func (d *MetadataStoreSqlite) SetPot(
	pot *models.Pot,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"authority",
			"recipient",
			"name",
			"description",
			"target_amount",
			"total_contributed",
			"balance",
			"unlock_timestamp",
			"released_at",
			"created_time",
			"signers_required",
			"signature_count",
			"contributor_count",
			"released",
		}),
	}).Create(pot)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert pot: %w", result.Error)
	}
	return nil
}

// ListPots returns a page of pots matching the filter along with the total
// number of matching pots
func (d *MetadataStoreSqlite) ListPots(
	filter models.PotFilter,
	txn types.Txn,
) ([]models.Pot, int64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, 0, err
	}
	// gorm chains are not safe to reuse after a finisher, so the filtered
	// query is rebuilt for the count and the page
	filtered := func() *gorm.DB {
		query := db.Model(&models.Pot{})
		if len(filter.Authority) > 0 {
			query = query.Where("authority = ?", filter.Authority)
		}
		if filter.Released != nil {
			query = query.Where("released = ?", *filter.Released)
		}
		return query
	}
	var total int64
	if result := filtered().Count(&total); result.Error != nil {
		return nil, 0, result.Error
	}
	query := filtered().Order(clause.OrderByColumn{
		Column: clause.Column{Name: "id"},
		Desc:   filter.Descending,
	})
	// sqlite only accepts OFFSET together with LIMIT
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
	}
	var ret []models.Pot
	if result := query.Find(&ret); result.Error != nil {
		return nil, 0, result.Error
	}
	return ret, total, nil
}

// GetPotContributors returns the contributor rows for a pot, in enrollment order
func (d *MetadataStoreSqlite) GetPotContributors(
	potAddress []byte,
	txn types.Txn,
) ([]models.PotContributor, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.PotContributor
	result := db.Where("pot_address = ?", potAddress).
		Order("position").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetPotContributors replaces all contributor rows for a pot
func (d *MetadataStoreSqlite) SetPotContributors(
	potAddress []byte,
	contributors []models.PotContributor,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Where("pot_address = ?", potAddress).Delete(&models.PotContributor{}); result.Error != nil {
		return fmt.Errorf("failed to clear pot contributors: %w", result.Error)
	}
	if len(contributors) == 0 {
		return nil
	}
	if result := db.Create(&contributors); result.Error != nil {
		return fmt.Errorf("failed to insert pot contributors: %w", result.Error)
	}
	return nil
}

// GetPotsByContributor returns the addresses of pots in which the identity is enrolled
func (d *MetadataStoreSqlite) GetPotsByContributor(
	contributor []byte,
	txn types.Txn,
) ([][]byte, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret [][]byte
	result := db.Model(&models.PotContributor{}).
		Where("contributor = ?", contributor).
		Order("id").
		Pluck("pot_address", &ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
