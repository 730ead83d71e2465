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

package ledger_test

import (
	"math"
	"testing"
	"time"

	"github.com/blinklabs-io/potluck/ledger"
	"github.com/stretchr/testify/assert"
)

func TestRentFloor(t *testing.T) {
	rent := ledger.DefaultRentPolicy()
	assert.Equal(t, uint64(0), rent.Floor(0))
	assert.Equal(t, uint64((1+128)*10), rent.Floor(1))
	assert.Equal(t, uint64((1536+128)*10), rent.Floor(1536))
	huge := ledger.RentPolicy{UnitsPerByte: math.MaxUint64, OverheadBytes: 1}
	assert.Equal(t, uint64(math.MaxUint64), huge.Floor(10))
	wrap := ledger.RentPolicy{UnitsPerByte: 1, OverheadBytes: math.MaxUint64}
	assert.Equal(t, uint64(math.MaxUint64), wrap.Floor(10))
}

func TestManualClock(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clock := ledger.NewManualClock(start)
	assert.Equal(t, start, clock.Now())
	clock.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), clock.Now())
	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}

func TestOffsetClock(t *testing.T) {
	clock := ledger.OffsetClock{Offset: 48 * time.Hour}
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), clock.Now(), time.Minute)
}
