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

package models

import (
	"errors"

	"github.com/blinklabs-io/potluck/database/types"
)

var ErrPotNotFound = errors.New("pot not found")

// Pot is the queryable index row for a pot account. The canonical record
// lives in the blob store; this row is rebuilt from it by the indexer
type Pot struct {
	Address          []byte `gorm:"uniqueIndex;size:32"`
	Authority        []byte `gorm:"index;size:32"`
	Recipient        []byte `gorm:"size:32"`
	Name             string `gorm:"size:32"`
	Description      string `gorm:"size:200"`
	ID               uint   `gorm:"primarykey"`
	TargetAmount     types.Uint64
	TotalContributed types.Uint64
	Balance          types.Uint64
	UnlockTimestamp  int64 `gorm:"index"`
	ReleasedAt       int64
	CreatedTime      int64 `gorm:"index"`
	SignersRequired  uint8
	SignatureCount   uint8
	ContributorCount uint8
	Released         bool `gorm:"index"`
}

func (Pot) TableName() string {
	return "pot"
}

// PotContributor indexes one identity enrolled in a pot, along with its
// contribution totals if it has deposited
type PotContributor struct {
	PotAddress         []byte `gorm:"uniqueIndex:idx_pot_contributor;size:32"`
	Contributor        []byte `gorm:"uniqueIndex:idx_pot_contributor;index;size:32"`
	ID                 uint   `gorm:"primarykey"`
	TotalContributed   types.Uint64
	JoinedAt           int64
	LastContributionAt int64
	ContributionCount  uint32
	Position           uint8
	Signed             bool
}

func (PotContributor) TableName() string {
	return "pot_contributor"
}

// PotFilter narrows a pot listing
type PotFilter struct {
	Authority  []byte
	Released   *bool
	Offset     int
	Limit      int
	Descending bool
}
