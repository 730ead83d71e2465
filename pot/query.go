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
	"errors"
	"fmt"

	"github.com/blinklabs-io/potluck/ledger"
)

// GetPot returns the pot stored at addr
func (p *Program) GetPot(ctx context.Context, addr ledger.Address) (*Pot, error) {
	var ret *Pot
	err := p.ledger.View(ctx, func(r ledger.Reader) error {
		var err error
		ret, err = loadPot(r, addr)
		return err
	})
	return ret, err
}

// GetPotByName returns the pot named name created by authority
func (p *Program) GetPotByName(
	ctx context.Context,
	authority ledger.Address,
	name string,
) (*Pot, error) {
	addr, err := PotAddress(authority, name)
	if err != nil {
		return nil, err
	}
	return p.GetPot(ctx, addr)
}

// GetContributor returns contributor's account for the pot at potAddr
func (p *Program) GetContributor(
	ctx context.Context,
	potAddr ledger.Address,
	contributor ledger.Address,
) (*Contributor, error) {
	var ret *Contributor
	err := p.ledger.View(ctx, func(r ledger.Reader) error {
		var err error
		ret, err = loadContributor(r, ContributorAddress(potAddr, contributor))
		if err != nil {
			return err
		}
		if ret == nil {
			return fmt.Errorf(
				"%w: %s in %s",
				ErrContributorNotFound,
				contributor,
				potAddr,
			)
		}
		return nil
	})
	return ret, err
}

// Snapshot is a pot with its contributor accounts and balance, read at a
// single point in time
type Snapshot struct {
	Pot          *Pot
	Contributors []*Contributor
	Balance      uint64
}

// PotSnapshot returns a consistent view of the pot at addr
func (p *Program) PotSnapshot(
	ctx context.Context,
	addr ledger.Address,
) (*Snapshot, error) {
	ret := &Snapshot{}
	err := p.ledger.View(ctx, func(r ledger.Reader) error {
		var err error
		ret.Pot, err = loadPot(r, addr)
		if err != nil {
			return err
		}
		ret.Contributors, err = loadContributors(r, ret.Pot)
		if err != nil {
			return err
		}
		ret.Balance, err = r.Balance(addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Contributor returns the account of identity within the snapshot, or nil
func (s *Snapshot) Contributor(identity ledger.Address) *Contributor {
	for _, contrib := range s.Contributors {
		if contrib.Contributor == identity {
			return contrib
		}
	}
	return nil
}

// ListPots enumerates every pot owned by the program in address order
func (p *Program) ListPots(ctx context.Context) ([]*Pot, error) {
	var ret []*Pot
	err := p.ledger.View(ctx, func(r ledger.Reader) error {
		accounts, err := r.AccountsByOwner(ProgramID)
		if err != nil {
			return err
		}
		for _, acct := range accounts {
			pot, err := decodePot(acct.Data)
			if err != nil {
				if errors.Is(err, errUnknownAccountKind) {
					// Contributor account
					continue
				}
				return fmt.Errorf("%w: %s: %w", ErrInvalidAccount, acct.Address, err)
			}
			pot.Address = acct.Address
			ret = append(ret, pot)
		}
		return nil
	})
	return ret, err
}

// Balance returns the balance held at addr
func (p *Program) Balance(ctx context.Context, addr ledger.Address) (uint64, error) {
	var ret uint64
	err := p.ledger.View(ctx, func(r ledger.Reader) error {
		var err error
		ret, err = r.Balance(addr)
		return err
	})
	return ret, err
}
