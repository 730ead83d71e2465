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
	"math/bits"
)

func checkedAdd(a uint64, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

func checkedMul(a uint64, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

func checkedIncrement32(v uint32) (uint32, error) {
	if v == math.MaxUint32 {
		return 0, ErrOverflow
	}
	return v + 1, nil
}

// unlockTimestamp returns now + days*SecondsPerDay
func unlockTimestamp(now int64, days uint64) (int64, error) {
	if now < 0 {
		return 0, ErrOverflow
	}
	offset, err := checkedMul(days, SecondsPerDay)
	if err != nil {
		return 0, err
	}
	ret, err := checkedAdd(uint64(now), offset)
	if err != nil {
		return 0, err
	}
	if ret > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return int64(ret), nil
}
