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
	"fmt"
	"slices"

	"github.com/blinklabs-io/potluck/ledger"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusReleased Status = "released"
)

func (p *Pot) Status() Status {
	if p.IsReleased {
		return StatusReleased
	}
	return StatusActive
}

// TimeLockExpired reports whether now is at or past the unlock time
func (p *Pot) TimeLockExpired(now int64) bool {
	return now >= p.UnlockTimestamp
}

func (p *Pot) QuorumReached() bool {
	return len(p.Signatures) >= int(p.SignersRequired)
}

func (p *Pot) IsContributor(addr ledger.Address) bool {
	return slices.Contains(p.Contributors, addr)
}

func (p *Pot) HasSigned(addr ledger.Address) bool {
	return slices.Contains(p.Signatures, addr)
}

// CanSign reports whether release signatures are being collected
func (p *Pot) CanSign(now int64) bool {
	return !p.IsReleased && p.TimeLockExpired(now)
}

// CanRelease reports whether the authority could release the funds now,
// ignoring the pot's balance
func (p *Pot) CanRelease(now int64) bool {
	return !p.IsReleased && p.TimeLockExpired(now) && p.QuorumReached()
}

// Progress returns the contributed amount as a fraction of the target. It
// is informational and may exceed 1
func (p *Pot) Progress() float64 {
	if p.TargetAmount == 0 {
		return 0
	}
	return float64(p.TotalContributed) / float64(p.TargetAmount)
}

func (p *Pot) checkActive() error {
	if p.IsReleased {
		return fmt.Errorf("%w: %s", ErrPotAlreadyReleased, p.Address)
	}
	return nil
}

func (p *Pot) checkAuthority(signer ledger.Address) error {
	if signer != p.Authority {
		return fmt.Errorf("%w: %s", ErrUnauthorized, signer)
	}
	return nil
}

func (p *Pot) checkTimeLock(now int64) error {
	if !p.TimeLockExpired(now) {
		return fmt.Errorf(
			"%w: unlocks at %d, now %d",
			ErrTimeLockNotExpired,
			p.UnlockTimestamp,
			now,
		)
	}
	return nil
}

// checkSign validates a release signature by signer at time now
func (p *Pot) checkSign(signer ledger.Address, now int64) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	if err := p.checkTimeLock(now); err != nil {
		return err
	}
	if !p.IsContributor(signer) {
		return fmt.Errorf("%w: %s", ErrNotAContributor, signer)
	}
	if p.HasSigned(signer) {
		return fmt.Errorf("%w: %s", ErrAlreadySigned, signer)
	}
	if len(p.Signatures) >= MaxSigners {
		return ErrSignatureLimitReached
	}
	return nil
}

// checkRelease validates a release by signer at time now. spendable is the
// pot account's balance above its rent floor
func (p *Pot) checkRelease(
	signer ledger.Address,
	recipient ledger.Address,
	now int64,
	spendable uint64,
) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	if err := p.checkAuthority(signer); err != nil {
		return err
	}
	if recipient.IsZero() || recipient == p.Address {
		return fmt.Errorf("%w: %s", ErrInvalidRecipient, recipient)
	}
	if err := p.checkTimeLock(now); err != nil {
		return err
	}
	if !p.QuorumReached() {
		return fmt.Errorf(
			"%w: have %d, need %d",
			ErrInsufficientSignatures,
			len(p.Signatures),
			p.SignersRequired,
		)
	}
	if spendable < p.TotalContributed {
		return fmt.Errorf(
			"%w: have %d, need %d",
			ErrInsufficientFunds,
			spendable,
			p.TotalContributed,
		)
	}
	return nil
}

// checkAddContributor validates adding identity to the contributor set
func (p *Pot) checkAddContributor(identity ledger.Address) error {
	if p.IsContributor(identity) {
		return fmt.Errorf("%w: %s", ErrAlreadyAContributor, identity)
	}
	if len(p.Contributors) >= MaxContributors {
		return ErrContributorLimitReached
	}
	return nil
}
