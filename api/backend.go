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

package api

import (
	"context"
	"time"

	"github.com/blinklabs-io/potluck/database"
	"github.com/blinklabs-io/potluck/database/models"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
)

// Backend is what the API server reads from. Listings come from the
// queryable index and single-pot lookups from the canonical ledger.
type Backend interface {
	// ListPots returns a page of indexed pots and the total count
	ListPots(filter models.PotFilter) ([]models.Pot, int64, error)

	// PotsByContributor returns the pots an identity is enrolled in
	PotsByContributor(identity ledger.Address) ([]ledger.Address, error)

	// PotSnapshot returns the canonical state of one pot
	PotSnapshot(ctx context.Context, addr ledger.Address) (*pot.Snapshot, error)

	// Balance returns the balance held at addr
	Balance(ctx context.Context, addr ledger.Address) (uint64, error)

	// Now returns the ledger's current time
	Now() time.Time
}

// NodeAdapter serves Backend from a database and pot program.
type NodeAdapter struct {
	db      *database.Database
	program *pot.Program
	clock   ledger.Clock
}

// NewNodeAdapter creates a NodeAdapter. Panics if db or program is nil.
func NewNodeAdapter(
	db *database.Database,
	program *pot.Program,
	clock ledger.Clock,
) *NodeAdapter {
	if db == nil || program == nil {
		panic("NewNodeAdapter: database and program must not be nil")
	}
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return &NodeAdapter{
		db:      db,
		program: program,
		clock:   clock,
	}
}

func (n *NodeAdapter) ListPots(
	filter models.PotFilter,
) ([]models.Pot, int64, error) {
	return n.db.ListPots(filter, nil)
}

func (n *NodeAdapter) PotsByContributor(
	identity ledger.Address,
) ([]ledger.Address, error) {
	rows, err := n.db.GetPotsByContributor(identity.Bytes(), nil)
	if err != nil {
		return nil, err
	}
	ret := make([]ledger.Address, 0, len(rows))
	for _, row := range rows {
		addr, err := ledger.NewAddress(row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, addr)
	}
	return ret, nil
}

func (n *NodeAdapter) PotSnapshot(
	ctx context.Context,
	addr ledger.Address,
) (*pot.Snapshot, error) {
	return n.program.PotSnapshot(ctx, addr)
}

func (n *NodeAdapter) Balance(
	ctx context.Context,
	addr ledger.Address,
) (uint64, error) {
	return n.program.Balance(ctx, addr)
}

func (n *NodeAdapter) Now() time.Time {
	return n.clock.Now()
}
