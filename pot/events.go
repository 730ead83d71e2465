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
	"github.com/blinklabs-io/potluck/event"
	"github.com/blinklabs-io/potluck/ledger"
)

const (
	PotCreatedEventType       = event.EventType("pot.created")
	ContributionEventType     = event.EventType("pot.contribution")
	SignatureEventType        = event.EventType("pot.signature")
	ReleasedEventType         = event.EventType("pot.released")
	ContributorAddedEventType = event.EventType("pot.contributor_added")
)

// EventTypes lists every event type published by the program
var EventTypes = []event.EventType{
	PotCreatedEventType,
	ContributionEventType,
	SignatureEventType,
	ReleasedEventType,
	ContributorAddedEventType,
}

// PotEvent is implemented by every event payload
type PotEvent interface {
	PotAddress() ledger.Address
}

type PotCreatedEvent struct {
	Pot             ledger.Address
	Authority       ledger.Address
	Name            string
	TargetAmount    uint64
	UnlockTimestamp int64
	CreatedAt       int64
	SignersRequired uint8
}

type ContributionEvent struct {
	Pot              ledger.Address
	Contributor      ledger.Address
	Amount           uint64
	ContributorTotal uint64
	TotalContributed uint64
	Timestamp        int64
	ContributorCount int
	// NewContributor is set when the contributor joined the pot's set
	NewContributor bool
}

type SignatureEvent struct {
	Pot             ledger.Address
	Signer          ledger.Address
	Timestamp       int64
	SignatureCount  int
	SignersRequired uint8
}

type ReleasedEvent struct {
	Pot            ledger.Address
	Authority      ledger.Address
	Recipient      ledger.Address
	Amount         uint64
	ReleasedAt     int64
	SignatureCount int
}

type ContributorAddedEvent struct {
	Pot              ledger.Address
	Authority        ledger.Address
	Contributor      ledger.Address
	ContributorCount int
}

func (e PotCreatedEvent) PotAddress() ledger.Address       { return e.Pot }
func (e ContributionEvent) PotAddress() ledger.Address     { return e.Pot }
func (e SignatureEvent) PotAddress() ledger.Address        { return e.Pot }
func (e ReleasedEvent) PotAddress() ledger.Address         { return e.Pot }
func (e ContributorAddedEvent) PotAddress() ledger.Address { return e.Pot }
