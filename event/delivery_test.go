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

package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriberDeliverDropsWhenFull(t *testing.T) {
	var dropped []Event
	sub := newSubscriber(2, func(evt Event) {
		dropped = append(dropped, evt)
	})
	assert.True(t, sub.deliver(NewEvent("pot.contribution", 1)))
	assert.True(t, sub.deliver(NewEvent("pot.contribution", 2)))

	done := make(chan bool, 1)
	go func() {
		done <- sub.deliver(NewEvent("pot.contribution", 3))
	}()
	select {
	case queued := <-done:
		assert.False(t, queued)
	case <-time.After(time.Second):
		t.Fatal("deliver blocked on a full queue")
	}
	require.Len(t, dropped, 1)
	assert.Equal(t, 3, dropped[0].Data)
	assert.Equal(t, 1, (<-sub.ch).Data)
	assert.Equal(t, 2, (<-sub.ch).Data)
}

func TestSubscriberDeliverAfterClose(t *testing.T) {
	sub := newSubscriber(1, nil)
	sub.close()
	sub.close()
	assert.False(t, sub.deliver(NewEvent("pot.released", nil)))
	_, ok := <-sub.ch
	assert.False(t, ok)
}

func TestUnsubscribeUnknownIsNoop(t *testing.T) {
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	subId, _ := eb.Subscribe("pot.created")
	eb.Unsubscribe("pot.signature", subId)
	eb.Unsubscribe("pot.created", subId+1)
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	assert.Len(t, eb.subscribers["pot.created"], 1)
}
