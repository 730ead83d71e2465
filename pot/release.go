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
	"context"

	"github.com/blinklabs-io/potluck/ledger"
)

// ReleaseFunds moves the pot's contributed funds to recipient and marks the
// pot released. Only the authority may release, and only once the time-lock
// has expired and enough contributors have signed
func (p *Program) ReleaseFunds(
	ctx context.Context,
	authority ledger.Address,
	potAddr ledger.Address,
	recipient ledger.Address,
) (*Pot, error) {
	var ret *Pot
	err := p.invoke(ctx, "release_funds", authority, potAddr, func(inv ledger.Invocation) error {
		pot, err := loadPot(inv, potAddr)
		if err != nil {
			return err
		}
		spendable, err := inv.Spendable(potAddr)
		if err != nil {
			return err
		}
		now := inv.Now()
		if err := pot.checkRelease(authority, recipient, now, spendable); err != nil {
			return err
		}
		if err := inv.Transfer(potAddr, recipient, pot.TotalContributed); err != nil {
			return fundsError(err)
		}
		pot.IsReleased = true
		pot.ReleasedAt = now
		pot.Recipient = recipient
		if err := storePot(inv, pot); err != nil {
			return err
		}
		ret = pot
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.metrics.potsReleased.Inc()
	p.metrics.releasedTotal.Add(float64(ret.TotalContributed))
	p.config.Logger.Info(
		"pot released",
		"component", "pot",
		"pot", potAddr.String(),
		"recipient", recipient.String(),
		"amount", ret.TotalContributed,
	)
	p.publish(ReleasedEventType, ReleasedEvent{
		Pot:            potAddr,
		Authority:      authority,
		Recipient:      recipient,
		Amount:         ret.TotalContributed,
		ReleasedAt:     ret.ReleasedAt,
		SignatureCount: len(ret.Signatures),
	})
	return ret, nil
}
