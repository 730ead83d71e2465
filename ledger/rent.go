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

package ledger

import (
	"math"
	"math/bits"
)

const (
	DefaultRentUnitsPerByte = 10
	DefaultRentOverhead     = 128
)

// RentPolicy computes the balance an account must keep to remain allocated
type RentPolicy struct {
	// UnitsPerByte is charged for each byte of reserved space plus overhead
	UnitsPerByte uint64
	// OverheadBytes is added to every account's reserved space
	OverheadBytes uint64
}

func DefaultRentPolicy() RentPolicy {
	return RentPolicy{
		UnitsPerByte:  DefaultRentUnitsPerByte,
		OverheadBytes: DefaultRentOverhead,
	}
}

// Floor returns the minimum balance for an account reserving space bytes.
// Accounts without reserved space (plain wallets) have no floor
func (r RentPolicy) Floor(space uint32) uint64 {
	if space == 0 {
		return 0
	}
	size, carry := bits.Add64(uint64(space), r.OverheadBytes, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	hi, lo := bits.Mul64(size, r.UnitsPerByte)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}
