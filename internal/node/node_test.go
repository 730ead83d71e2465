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

package node

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/potluck/internal/config"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNodeOptionsRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ClockOffset = "1h"
	_, err := NodeOptions(cfg, discardLogger())
	require.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.ShutdownTimeout = "eventually"
	_, err = NodeOptions(cfg, discardLogger())
	require.Error(t, err)
}

func TestOpenShiftsClockInDevMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DatabasePath = ""
	cfg.RunMode = config.RunModeDev
	cfg.ClockOffset = "240h"

	n, err := Open(cfg, discardLogger())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, n.Stop())
	}()
	assert.Empty(t, n.ApiAddr())

	sys := ledger.SystemClock{}.Now().Unix()
	assert.GreaterOrEqual(t, n.Ledger().Now().Unix(), sys+239*3600)

	// Funds can be airdropped and read back
	addr := ledger.IdentityFromKey([]byte("alice"))
	require.NoError(t, n.Airdrop(context.Background(), addr, 42))
	balance, err := n.Program().Balance(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), balance)
}

func TestOpenUsesConfiguredRent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DatabasePath = ""
	cfg.RentUnitsPerByte = 1
	cfg.RentOverheadBytes = 0

	n, err := Open(cfg, discardLogger())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, n.Stop())
	}()
	assert.Equal(t, uint64(100), n.Ledger().RentFloor(100))
}
