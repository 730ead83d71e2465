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

package indexer_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/potluck/database"
	"github.com/blinklabs-io/potluck/database/models"
	"github.com/blinklabs-io/potluck/event"
	"github.com/blinklabs-io/potluck/indexer"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	authority = ledger.IdentityFromKey([]byte("authority"))
	alice     = ledger.IdentityFromKey([]byte("alice"))
	bob       = ledger.IdentityFromKey([]byte("bob"))
)

type testEnv struct {
	db       *database.Database
	state    *ledger.State
	clock    *ledger.ManualClock
	eventBus *event.EventBus
	program  *pot.Program
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	clock := ledger.NewManualClock(time.Unix(1_700_000_000, 0))
	state, err := ledger.NewState(ledger.StateConfig{Database: db, Clock: clock})
	require.NoError(t, err)
	eventBus := event.NewEventBus(nil, nil)
	program, err := pot.NewProgram(pot.ProgramConfig{Ledger: state, EventBus: eventBus})
	require.NoError(t, err)
	ctx := context.Background()
	for _, addr := range []ledger.Address{authority, alice, bob} {
		require.NoError(t, state.Airdrop(ctx, addr, 1_000_000))
	}
	return &testEnv{
		db:       db,
		state:    state,
		clock:    clock,
		eventBus: eventBus,
		program:  program,
	}
}

func (e *testEnv) close() {
	e.eventBus.Stop()
	e.db.Close()
}

func createArgs(name string) pot.CreatePotArgs {
	return pot.CreatePotArgs{
		Name:            name,
		TargetAmount:    100,
		UnlockDays:      1,
		SignersRequired: 1,
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := indexer.New(indexer.IndexerConfig{})
	require.Error(t, err)
}

func TestIndexerFollowsEvents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	defer env.close()
	idx, err := indexer.New(indexer.IndexerConfig{
		Database:          env.db,
		Program:           env.program,
		EventBus:          env.eventBus,
		ReconcileInterval: -1,
	})
	require.NoError(t, err)
	require.NoError(t, idx.Start(ctx))
	defer idx.Stop()

	created, err := env.program.CreatePot(ctx, authority, createArgs("trip"))
	require.NoError(t, err)
	_, _, err = env.program.Contribute(ctx, alice, created.Address, 40)
	require.NoError(t, err)
	_, err = env.program.AddContributor(ctx, authority, created.Address, bob)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		row, err := env.db.GetPot(created.Address.Bytes(), nil)
		return err == nil && row.TotalContributed == 40 && row.ContributorCount == 3
	}, 2*time.Second, 10*time.Millisecond)

	contributors, err := env.db.GetPotContributors(created.Address.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, contributors, 3)
	assert.Equal(t, authority.Bytes(), contributors[0].Contributor)
	assert.Equal(t, alice.Bytes(), contributors[1].Contributor)
	assert.EqualValues(t, 40, contributors[1].TotalContributed)
	assert.Equal(t, uint32(1), contributors[1].ContributionCount)
	assert.Equal(t, bob.Bytes(), contributors[2].Contributor)
	assert.EqualValues(t, 0, contributors[2].TotalContributed)

	env.clock.Advance(25 * time.Hour)
	_, err = env.program.SignRelease(ctx, alice, created.Address)
	require.NoError(t, err)
	recipient := ledger.IdentityFromKey([]byte("recipient"))
	_, err = env.program.ReleaseFunds(ctx, authority, created.Address, recipient)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		row, err := env.db.GetPot(created.Address.Bytes(), nil)
		return err == nil && row.Released
	}, 2*time.Second, 10*time.Millisecond)
	row, err := env.db.GetPot(created.Address.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, recipient.Bytes(), row.Recipient)
	assert.Equal(t, uint8(1), row.SignatureCount)
	assert.EqualValues(t, env.state.RentFloor(pot.PotSpace), row.Balance)
	contributors, err = env.db.GetPotContributors(created.Address.Bytes(), nil)
	require.NoError(t, err)
	assert.True(t, contributors[1].Signed)
	assert.False(t, contributors[0].Signed)
}

func TestReindexOnStart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	defer env.close()
	for _, name := range []string{"a", "b", "c"} {
		_, err := env.program.CreatePot(ctx, authority, createArgs(name))
		require.NoError(t, err)
	}
	other, err := env.program.CreatePot(ctx, alice, createArgs("a"))
	require.NoError(t, err)

	// No event bus: only the initial scan populates the index
	idx, err := indexer.New(indexer.IndexerConfig{
		Database:          env.db,
		Program:           env.program,
		ReconcileInterval: -1,
	})
	require.NoError(t, err)
	require.NoError(t, idx.Start(ctx))
	defer idx.Stop()

	rows, total, err := env.db.ListPots(models.PotFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, rows, 4)
	rows, total, err = env.db.ListPots(models.PotFilter{Authority: alice.Bytes()}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, other.Address.Bytes(), rows[0].Address)

	require.Error(t, idx.Start(ctx))
}

func TestReconcileCatchesMissedUpdates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	defer env.close()
	idx, err := indexer.New(indexer.IndexerConfig{
		Database:          env.db,
		Program:           env.program,
		ReconcileInterval: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, idx.Start(ctx))
	defer idx.Stop()

	created, err := env.program.CreatePot(ctx, authority, createArgs("late"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := env.db.GetPot(created.Address.Bytes(), nil)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIndexPotMissing(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()
	idx, err := indexer.New(indexer.IndexerConfig{
		Database: env.db,
		Program:  env.program,
	})
	require.NoError(t, err)
	err = idx.IndexPot(context.Background(), ledger.IdentityFromKey([]byte("nothing")))
	require.ErrorIs(t, err, pot.ErrPotNotFound)
	// Stop before Start is a no-op
	idx.Stop()
}
