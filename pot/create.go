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

type CreatePotArgs struct {
	Name            string
	Description     string
	TargetAmount    uint64
	UnlockDays      uint64
	SignersRequired uint8
}

func (a CreatePotArgs) validate() error {
	if len(a.Name) > MaxNameLength {
		return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(a.Name))
	}
	if len(a.Description) > MaxDescriptionLength {
		return fmt.Errorf(
			"%w: %d bytes",
			ErrDescriptionTooLong,
			len(a.Description),
		)
	}
	if a.TargetAmount == 0 {
		return ErrInvalidTargetAmount
	}
	if a.UnlockDays == 0 {
		return ErrInvalidUnlockPeriod
	}
	if a.SignersRequired == 0 || a.SignersRequired > MaxSigners {
		return fmt.Errorf(
			"%w: %d",
			ErrInvalidSignersRequired,
			a.SignersRequired,
		)
	}
	return nil
}

// CreatePot creates a pot owned by authority. The authority pays the pot
// account's rent floor and becomes its first contributor
func (p *Program) CreatePot(
	ctx context.Context,
	authority ledger.Address,
	args CreatePotArgs,
) (*Pot, error) {
	var ret *Pot
	potAddr, addrErr := PotAddress(authority, args.Name)
	err := p.invoke(ctx, "create_pot", authority, potAddr, func(inv ledger.Invocation) error {
		if err := args.validate(); err != nil {
			return err
		}
		if addrErr != nil {
			return addrErr
		}
		now := inv.Now()
		unlock, err := unlockTimestamp(now, args.UnlockDays)
		if err != nil {
			return err
		}
		pot := &Pot{
			Address:         potAddr,
			Authority:       authority,
			Name:            args.Name,
			Description:     args.Description,
			TargetAmount:    args.TargetAmount,
			UnlockTimestamp: unlock,
			SignersRequired: args.SignersRequired,
			Signatures:      []ledger.Address{},
			Contributors:    []ledger.Address{authority},
			CreatedAt:       now,
		}
		data, err := pot.encode()
		if err != nil {
			return err
		}
		if err := inv.Allocate(potAddr, authority, PotSpace, data); err != nil {
			if errors.Is(err, ledger.ErrAccountExists) {
				return fmt.Errorf("%w: %s", ErrAlreadyExists, potAddr)
			}
			return fundsError(err)
		}
		ret = pot
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.metrics.potsCreated.Inc()
	p.config.Logger.Info(
		"pot created",
		"component", "pot",
		"pot", potAddr.String(),
		"authority", authority.String(),
		"name", ret.Name,
		"target", ret.TargetAmount,
		"unlock_timestamp", ret.UnlockTimestamp,
		"signers_required", ret.SignersRequired,
	)
	p.publish(PotCreatedEventType, PotCreatedEvent{
		Pot:             potAddr,
		Authority:       authority,
		Name:            ret.Name,
		TargetAmount:    ret.TargetAmount,
		UnlockTimestamp: ret.UnlockTimestamp,
		CreatedAt:       ret.CreatedAt,
		SignersRequired: ret.SignersRequired,
	})
	return ret, nil
}
