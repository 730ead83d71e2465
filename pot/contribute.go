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
	"fmt"

	"github.com/blinklabs-io/potluck/ledger"
)

// Contribute deposits amount from contributor into the pot. The first
// contribution creates the contributor's account, whose rent floor is paid
// by the contributor on top of the deposit. Each call is a new deposit
func (p *Program) Contribute(
	ctx context.Context,
	contributor ledger.Address,
	potAddr ledger.Address,
	amount uint64,
) (*Pot, *Contributor, error) {
	var retPot *Pot
	var retContrib *Contributor
	var joined bool
	err := p.invoke(ctx, "contribute", contributor, potAddr, func(inv ledger.Invocation) error {
		pot, err := loadPot(inv, potAddr)
		if err != nil {
			return err
		}
		if err := pot.checkActive(); err != nil {
			return err
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		now := inv.Now()
		contribAddr := ContributorAddress(potAddr, contributor)
		contrib, err := loadContributor(inv, contribAddr)
		if err != nil {
			return err
		}
		isNew := contrib == nil
		if isNew {
			contrib = &Contributor{
				Address:     contribAddr,
				Pot:         potAddr,
				Contributor: contributor,
				JoinedAt:    now,
			}
		}
		// Compute every new value before writing anything
		contribTotal, err := checkedAdd(contrib.TotalContributed, amount)
		if err != nil {
			return fmt.Errorf("%w: contributor total", err)
		}
		potTotal, err := checkedAdd(pot.TotalContributed, amount)
		if err != nil {
			return fmt.Errorf("%w: pot total", err)
		}
		count, err := checkedIncrement32(contrib.ContributionCount)
		if err != nil {
			return fmt.Errorf("%w: contribution count", err)
		}
		joined = !pot.IsContributor(contributor)
		if joined && len(pot.Contributors) >= MaxContributors {
			return ErrContributorLimitReached
		}
		if err := inv.Transfer(contributor, potAddr, amount); err != nil {
			return fundsError(err)
		}
		contrib.TotalContributed = contribTotal
		contrib.ContributionCount = count
		contrib.LastContributionAt = now
		data, err := contrib.encode()
		if err != nil {
			return err
		}
		if isNew {
			err = inv.Allocate(contribAddr, contributor, ContributorSpace, data)
		} else {
			err = inv.SetData(contribAddr, data)
		}
		if err != nil {
			return fundsError(err)
		}
		pot.TotalContributed = potTotal
		if joined {
			pot.Contributors = append(pot.Contributors, contributor)
		}
		if err := storePot(inv, pot); err != nil {
			return err
		}
		retPot = pot
		retContrib = contrib
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	p.metrics.contributedTotal.Add(float64(amount))
	p.config.Logger.Info(
		"contribution recorded",
		"component", "pot",
		"pot", potAddr.String(),
		"contributor", contributor.String(),
		"amount", amount,
		"total_contributed", retPot.TotalContributed,
	)
	p.publish(ContributionEventType, ContributionEvent{
		Pot:              potAddr,
		Contributor:      contributor,
		Amount:           amount,
		ContributorTotal: retContrib.TotalContributed,
		TotalContributed: retPot.TotalContributed,
		Timestamp:        retContrib.LastContributionAt,
		ContributorCount: len(retPot.Contributors),
		NewContributor:   joined,
	})
	return retPot, retContrib, nil
}
