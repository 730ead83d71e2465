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
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const EventQueueSize = 20

type EventType string

type EventSubscriberId int

type EventHandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

// EventBus delivers committed state transitions to in-process consumers.
// Publish never blocks on a slow consumer: a full subscriber queue drops the
// event and counts it
type EventBus struct {
	subscribers map[EventType]map[EventSubscriberId]*subscriber
	metrics     *eventMetrics
	lastSubId   EventSubscriberId
	mu          sync.RWMutex
	logger      *slog.Logger
	// Held for reading while a handler goroutine is registered, and for
	// writing for the duration of Stop
	stopMu    sync.RWMutex
	handlerWg sync.WaitGroup
}

func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &EventBus{
		subscribers: make(map[EventType]map[EventSubscriberId]*subscriber),
		logger:      logger,
	}
	if promRegistry != nil {
		e.initMetrics(promRegistry)
	}
	return e
}

type subscriber struct {
	ch     chan Event
	onDrop func(Event)
	mu     sync.RWMutex
	closed bool
}

func newSubscriber(buffer int, onDrop func(Event)) *subscriber {
	return &subscriber{
		ch:     make(chan Event, buffer),
		onDrop: onDrop,
	}
}

// deliver reports whether the event was queued
func (s *subscriber) deliver(evt Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- evt:
		return true
	default:
		if s.onDrop != nil {
			s.onDrop(evt)
		}
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Subscribe allows a consumer to receive events of a particular type via a channel
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	return e.SubscribeBuffered(eventType, EventQueueSize)
}

// SubscribeBuffered is Subscribe with a caller chosen channel buffer size.
// Consumers that cannot keep up with bursts should ask for a larger buffer
func (e *EventBus) SubscribeBuffered(
	eventType EventType,
	buffer int,
) (EventSubscriberId, <-chan Event) {
	if buffer <= 0 {
		buffer = EventQueueSize
	}
	sub := newSubscriber(buffer, e.droppedFunc(eventType))
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSubId++
	subId := e.lastSubId
	if _, ok := e.subscribers[eventType]; !ok {
		e.subscribers[eventType] = make(map[EventSubscriberId]*subscriber)
	}
	e.subscribers[eventType][subId] = sub
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType)).Inc()
	}
	return subId, sub.ch
}

func (e *EventBus) droppedFunc(eventType EventType) func(Event) {
	return func(Event) {
		if e.metrics != nil {
			e.metrics.dropped.WithLabelValues(string(eventType)).Inc()
		}
		e.logger.Warn(
			"subscriber queue full, dropping event",
			"component", "event",
			"type", eventType,
		)
	}
}

// SubscribeFunc runs handlerFunc on its own goroutine for every event of
// the given type. A panicking handler is logged and keeps receiving later
// events. Stop waits for the handler to drain
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handlerFunc EventHandlerFunc,
) EventSubscriberId {
	e.stopMu.RLock()
	defer e.stopMu.RUnlock()
	subId, evtCh := e.Subscribe(eventType)
	e.handlerWg.Add(1)
	go func() {
		defer e.handlerWg.Done()
		for evt := range evtCh {
			e.runHandler(handlerFunc, evt)
		}
	}()
	return subId
}

func (e *EventBus) runHandler(handlerFunc EventHandlerFunc, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(
				"event handler panic",
				"component", "event",
				"type", evt.Type,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	handlerFunc(evt)
}

// Unsubscribe stops delivery of events for a particular type for an existing subscriber
func (e *EventBus) Unsubscribe(eventType EventType, subId EventSubscriberId) {
	e.mu.Lock()
	var sub *subscriber
	if evtTypeSubs, ok := e.subscribers[eventType]; ok {
		sub = evtTypeSubs[subId]
		delete(evtTypeSubs, subId)
		if len(evtTypeSubs) == 0 {
			delete(e.subscribers, eventType)
		}
	}
	if sub != nil && e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType)).Dec()
	}
	e.mu.Unlock()
	if sub != nil {
		sub.close()
	}
}

// Publish sends an event of a particular type to all subscribers
func (e *EventBus) Publish(eventType EventType, evt Event) {
	e.mu.RLock()
	subs := make([]*subscriber, 0, len(e.subscribers[eventType]))
	for _, sub := range e.subscribers[eventType] {
		subs = append(subs, sub)
	}
	e.mu.RUnlock()
	delivered := 0
	for _, sub := range subs {
		if sub.deliver(evt) {
			delivered++
		}
	}
	if e.metrics != nil {
		e.metrics.eventsTotal.WithLabelValues(string(eventType)).Inc()
		e.metrics.delivered.WithLabelValues(string(eventType)).
			Add(float64(delivered))
	}
}

// Stop closes all subscribers and waits for SubscribeFunc handlers to exit.
// The EventBus can still be used after Stop() is called
func (e *EventBus) Stop() {
	e.stopMu.Lock()
	defer e.stopMu.Unlock()
	e.mu.Lock()
	subs := e.subscribers
	e.subscribers = make(map[EventType]map[EventSubscriberId]*subscriber)
	e.mu.Unlock()
	for _, evtTypeSubs := range subs {
		for _, sub := range evtTypeSubs {
			sub.close()
		}
	}
	e.handlerWg.Wait()
	if e.metrics != nil {
		e.metrics.subscribers.Reset()
	}
}
