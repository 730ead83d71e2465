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

// SignRelease records signer's approval of the pot's release. Signatures
// are only collected once the time-lock has expired
func (p *Program) SignRelease(
	ctx context.Context,
	signer ledger.Address,
	potAddr ledger.Address,
) (*Pot, error) {
	var ret *Pot
	var now int64
	err := p.invoke(ctx, "sign_release", signer, potAddr, func(inv ledger.Invocation) error {
		pot, err := loadPot(inv, potAddr)
		if err != nil {
			return err
		}
		now = inv.Now()
		if err := pot.checkSign(signer, now); err != nil {
			return err
		}
		pot.Signatures = append(pot.Signatures, signer)
		if err := storePot(inv, pot); err != nil {
			return err
		}
		ret = pot
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.metrics.signaturesTotal.Inc()
	p.config.Logger.Info(
		"release signed",
		"component", "pot",
		"pot", potAddr.String(),
		"signer", signer.String(),
		"signatures", len(ret.Signatures),
		"signers_required", ret.SignersRequired,
	)
	p.publish(SignatureEventType, SignatureEvent{
		Pot:             potAddr,
		Signer:          signer,
		Timestamp:       now,
		SignatureCount:  len(ret.Signatures),
		SignersRequired: ret.SignersRequired,
	})
	return ret, nil
}
