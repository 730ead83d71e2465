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

package pot_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/potluck/database"
	"github.com/blinklabs-io/potluck/event"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testStartTime = 1_700_000_000

var (
	authority = ledger.IdentityFromKey([]byte("authority"))
	alice     = ledger.IdentityFromKey([]byte("alice"))
	bob       = ledger.IdentityFromKey([]byte("bob"))
	carol     = ledger.IdentityFromKey([]byte("carol"))
	recipient = ledger.IdentityFromKey([]byte("recipient"))
)

type testEnv struct {
	program  *pot.Program
	state    *ledger.State
	clock    *ledger.ManualClock
	eventBus *event.EventBus
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	clock := ledger.NewManualClock(time.Unix(testStartTime, 0))
	state, err := ledger.NewState(ledger.StateConfig{
		Database: db,
		Clock:    clock,
	})
	require.NoError(t, err)
	eventBus := event.NewEventBus(nil, nil)
	t.Cleanup(eventBus.Stop)
	registry := prometheus.NewRegistry()
	program, err := pot.NewProgram(pot.ProgramConfig{
		Ledger:       state,
		EventBus:     eventBus,
		PromRegistry: registry,
	})
	require.NoError(t, err)
	return &testEnv{
		program:  program,
		state:    state,
		clock:    clock,
		eventBus: eventBus,
		registry: registry,
	}
}

func (e *testEnv) fund(t *testing.T, amount uint64, addrs ...ledger.Address) {
	t.Helper()
	for _, addr := range addrs {
		require.NoError(t, e.state.Airdrop(context.Background(), addr, amount))
	}
}

func (e *testEnv) balance(t *testing.T, addr ledger.Address) uint64 {
	t.Helper()
	ret, err := e.program.Balance(context.Background(), addr)
	require.NoError(t, err)
	return ret
}

func (e *testEnv) createPot(t *testing.T, args pot.CreatePotArgs) *pot.Pot {
	t.Helper()
	ret, err := e.program.CreatePot(context.Background(), authority, args)
	require.NoError(t, err)
	return ret
}

func defaultArgs() pot.CreatePotArgs {
	return pot.CreatePotArgs{
		Name:            "trip",
		Description:     "summer trip",
		TargetAmount:    50,
		UnlockDays:      30,
		SignersRequired: 2,
	}
}

func (e *testEnv) counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := e.registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if want, ok := labels[label.GetName()]; ok && want != label.GetValue() {
					continue metrics
				}
			}
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
