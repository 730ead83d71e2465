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

// AddContributor lets the authority grant identity the right to contribute
// and sign. No contributor account is created
func (p *Program) AddContributor(
	ctx context.Context,
	authority ledger.Address,
	potAddr ledger.Address,
	identity ledger.Address,
) (*Pot, error) {
	var ret *Pot
	err := p.invoke(ctx, "add_contributor", authority, potAddr, func(inv ledger.Invocation) error {
		pot, err := loadPot(inv, potAddr)
		if err != nil {
			return err
		}
		if err := pot.checkActive(); err != nil {
			return err
		}
		if err := pot.checkAuthority(authority); err != nil {
			return err
		}
		if err := pot.checkAddContributor(identity); err != nil {
			return err
		}
		pot.Contributors = append(pot.Contributors, identity)
		if err := storePot(inv, pot); err != nil {
			return err
		}
		ret = pot
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.config.Logger.Info(
		"contributor added",
		"component", "pot",
		"pot", potAddr.String(),
		"contributor", identity.String(),
	)
	p.publish(ContributorAddedEventType, ContributorAddedEvent{
		Pot:              potAddr,
		Authority:        authority,
		Contributor:      identity,
		ContributorCount: len(ret.Contributors),
	})
	return ret, nil
}
