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
	"sync"
	"time"
)

// Clock supplies the trusted wall-clock time used by invocations
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// OffsetClock reads the host clock shifted by a fixed offset. It exists for
// development setups that need to move past time-locks
type OffsetClock struct {
	Offset time.Duration
}

func (c OffsetClock) Now() time.Time {
	return time.Now().Add(c.Offset)
}

// ManualClock only moves when told to
type ManualClock struct {
	now time.Time
	mu  sync.Mutex
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
