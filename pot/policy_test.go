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

package pot

import (
	"math"
	"testing"

	"github.com/blinklabs-io/potluck/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedMath(t *testing.T) {
	sum, err := checkedAdd(math.MaxUint64-1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), sum)
	_, err = checkedAdd(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrOverflow)

	product, err := checkedMul(1<<32, 1<<31)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<63), product)
	_, err = checkedMul(1<<32, 1<<32)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = checkedIncrement32(math.MaxUint32)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestUnlockTimestamp(t *testing.T) {
	ts, err := unlockTimestamp(1_000, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000+2*SecondsPerDay), ts)
	_, err = unlockTimestamp(math.MaxInt64-10, 1)
	require.ErrorIs(t, err, ErrOverflow)
	_, err = unlockTimestamp(0, math.MaxUint64/SecondsPerDay+1)
	require.ErrorIs(t, err, ErrOverflow)
	_, err = unlockTimestamp(-1, 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestCheckReleaseInsufficientFunds(t *testing.T) {
	authority := identity(1)
	pot := &Pot{
		Address:          identity(2),
		Authority:        authority,
		TotalContributed: 500,
		UnlockTimestamp:  100,
		SignersRequired:  1,
		Signatures:       []ledger.Address{authority},
		Contributors:     []ledger.Address{authority},
	}
	err := pot.checkRelease(authority, identity(3), 100, 499)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, pot.checkRelease(authority, identity(3), 100, 500))
	// Time-lock is checked even with a quorum in hand
	err = pot.checkRelease(authority, identity(3), 99, 500)
	require.ErrorIs(t, err, ErrTimeLockNotExpired)
}

func TestPredicates(t *testing.T) {
	pot := &Pot{
		UnlockTimestamp: 100,
		SignersRequired: 2,
		TargetAmount:    200,
		Contributors:    []ledger.Address{identity(1), identity(2)},
	}
	assert.False(t, pot.CanSign(99))
	assert.True(t, pot.CanSign(100))
	assert.False(t, pot.CanRelease(100))
	pot.Signatures = []ledger.Address{identity(1), identity(2)}
	assert.True(t, pot.CanRelease(100))
	assert.True(t, pot.HasSigned(identity(2)))
	assert.False(t, pot.HasSigned(identity(3)))
	pot.TotalContributed = 50
	assert.InDelta(t, 0.25, pot.Progress(), 0.0001)
	pot.IsReleased = true
	assert.False(t, pot.CanSign(100))
	assert.False(t, pot.CanRelease(100))
	assert.Equal(t, StatusReleased, pot.Status())
}

func TestProgramErrorCodes(t *testing.T) {
	assert.Same(t, ErrNameTooLong, ErrorByCode(6000))
	assert.Same(t, ErrOverflow, ErrorByCode(6013))
	assert.Nil(t, ErrorByCode(5999))
	assert.Nil(t, ErrorByCode(uint32(6000+len(ProgramErrors()))))
	seen := map[uint32]bool{}
	for _, perr := range ProgramErrors() {
		assert.False(t, seen[perr.Code], "duplicate code %d", perr.Code)
		seen[perr.Code] = true
		assert.Same(t, perr, ErrorByCode(perr.Code))
	}
	assert.Equal(t, "NameTooLong (6000): pot name exceeds 32 bytes", ErrNameTooLong.Error())
	perr, ok := AsProgramError(resultErr())
	require.True(t, ok)
	assert.Same(t, ErrAlreadySigned, perr)
}

func resultErr() error {
	return (&Pot{Contributors: []ledger.Address{identity(1)}, Signatures: []ledger.Address{identity(1)}}).checkSign(identity(1), 0)
}
