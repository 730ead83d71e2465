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

package event_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/potluck/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSubscribeBufferedDropsAndCounts(t *testing.T) {
	defer goleak.VerifyNone(t)
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	typ := event.EventType("test.buffered")
	_, ch := eb.SubscribeBuffered(typ, 2)
	for i := range 5 {
		eb.Publish(typ, event.NewEvent(typ, i))
	}
	assert.Len(t, ch, 2)
	assert.Equal(t, 3.0, counterValue(t, reg, "potluck_event_dropped_total"))
	assert.Equal(t, 5.0, counterValue(t, reg, "potluck_event_published_total"))
	assert.Equal(t, 2.0, counterValue(t, reg, "potluck_event_delivered_total"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestSubscribeFuncDelivers(t *testing.T) {
	defer goleak.VerifyNone(t)
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	typ := event.EventType("pot.released")
	got := make(chan any, 1)
	eb.SubscribeFunc(typ, func(evt event.Event) {
		got <- evt.Data
	})
	eb.Publish(typ, event.NewEvent(typ, "pot1"))
	select {
	case v := <-got:
		assert.Equal(t, "pot1", v)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}
	assert.Equal(t, 1.0, counterValue(t, reg, "potluck_event_delivered_total"))
	eb.Stop()
}

func TestStopWaitsForHandlers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	typ := event.EventType("test.slow")
	started := make(chan struct{})
	release := make(chan struct{})
	var finished bool
	eb.SubscribeFunc(typ, func(event.Event) {
		close(started)
		<-release
		finished = true
	})
	eb.Publish(typ, event.NewEvent(typ, nil))
	<-started
	stopped := make(chan struct{})
	go func() {
		eb.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a handler was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-stopped
	assert.True(t, finished)
}
