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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/potluck/ledger"
)

const (
	MaxNameLength        = 32
	MaxDescriptionLength = 200
	MaxSigners           = 10
	MaxContributors      = 20
	SecondsPerDay        = 86400

	// PotSpace is the data space reserved for every pot account. It fits a
	// pot with maximum length strings and full signature and contributor sets
	PotSpace = 1536
	// ContributorSpace is the data space reserved for every contributor account
	ContributorSpace = 160

	potSeed         = "pot"
	contributorSeed = "contributor"
)

// Account data starts with a one byte kind followed by the CBOR record
const (
	accountKindPot         byte = 1
	accountKindContributor byte = 2
)

var errUnknownAccountKind = errors.New("unknown account kind")

// Pot is a shared savings account and its release parameters
type Pot struct {
	Address          ledger.Address
	Authority        ledger.Address
	Name             string
	Description      string
	TargetAmount     uint64
	TotalContributed uint64
	UnlockTimestamp  int64
	SignersRequired  uint8
	Signatures       []ledger.Address
	Contributors     []ledger.Address
	IsReleased       bool
	ReleasedAt       int64
	Recipient        ledger.Address
	CreatedAt        int64
}

// Contributor tracks one identity's deposits into one pot
type Contributor struct {
	Address            ledger.Address
	Pot                ledger.Address
	Contributor        ledger.Address
	TotalContributed   uint64
	ContributionCount  uint32
	LastContributionAt int64
	JoinedAt           int64
}

type potRecord struct {
	cbor.StructAsArray
	Authority        []byte
	Name             string
	Description      string
	TargetAmount     uint64
	TotalContributed uint64
	UnlockTimestamp  int64
	SignersRequired  uint8
	Signatures       [][]byte
	Contributors     [][]byte
	IsReleased       bool
	ReleasedAt       int64
	Recipient        []byte
	CreatedAt        int64
}

type contributorRecord struct {
	cbor.StructAsArray
	Pot                []byte
	Contributor        []byte
	TotalContributed   uint64
	ContributionCount  uint32
	LastContributionAt int64
	JoinedAt           int64
}

// PotAddress returns the address of the pot named name created by authority
func PotAddress(authority ledger.Address, name string) (ledger.Address, error) {
	if len(name) > MaxNameLength {
		return ledger.Address{}, fmt.Errorf(
			"%w: %d bytes",
			ErrNameTooLong,
			len(name),
		)
	}
	return ledger.DeriveAddress(
		ProgramID,
		[]byte(potSeed),
		authority.Bytes(),
		[]byte(name),
	)
}

// ContributorAddress returns the address of the contributor account
// tracking contributor's deposits into the pot at potAddr
func ContributorAddress(potAddr ledger.Address, contributor ledger.Address) ledger.Address {
	// Seeds are fixed length so derivation cannot fail
	ret, _ := ledger.DeriveAddress(
		ProgramID,
		[]byte(contributorSeed),
		potAddr.Bytes(),
		contributor.Bytes(),
	)
	return ret
}

func (p *Pot) encode() ([]byte, error) {
	rec := potRecord{
		Authority:        p.Authority.Bytes(),
		Name:             p.Name,
		Description:      p.Description,
		TargetAmount:     p.TargetAmount,
		TotalContributed: p.TotalContributed,
		UnlockTimestamp:  p.UnlockTimestamp,
		SignersRequired:  p.SignersRequired,
		Signatures:       addressesToBytes(p.Signatures),
		Contributors:     addressesToBytes(p.Contributors),
		IsReleased:       p.IsReleased,
		ReleasedAt:       p.ReleasedAt,
		Recipient:        p.Recipient.Bytes(),
		CreatedAt:        p.CreatedAt,
	}
	data, err := cbor.Encode(&rec)
	if err != nil {
		return nil, fmt.Errorf("encode pot: %w", err)
	}
	return append([]byte{accountKindPot}, data...), nil
}

func decodePot(data []byte) (*Pot, error) {
	if len(data) == 0 || data[0] != accountKindPot {
		return nil, errUnknownAccountKind
	}
	var rec potRecord
	if _, err := cbor.Decode(data[1:], &rec); err != nil {
		return nil, fmt.Errorf("decode pot: %w", err)
	}
	ret := &Pot{
		Name:             rec.Name,
		Description:      rec.Description,
		TargetAmount:     rec.TargetAmount,
		TotalContributed: rec.TotalContributed,
		UnlockTimestamp:  rec.UnlockTimestamp,
		SignersRequired:  rec.SignersRequired,
		IsReleased:       rec.IsReleased,
		ReleasedAt:       rec.ReleasedAt,
		CreatedAt:        rec.CreatedAt,
	}
	var err error
	if ret.Authority, err = ledger.NewAddress(rec.Authority); err != nil {
		return nil, fmt.Errorf("decode pot authority: %w", err)
	}
	if ret.Recipient, err = ledger.NewAddress(rec.Recipient); err != nil {
		return nil, fmt.Errorf("decode pot recipient: %w", err)
	}
	if ret.Signatures, err = bytesToAddresses(rec.Signatures); err != nil {
		return nil, fmt.Errorf("decode pot signatures: %w", err)
	}
	if ret.Contributors, err = bytesToAddresses(rec.Contributors); err != nil {
		return nil, fmt.Errorf("decode pot contributors: %w", err)
	}
	return ret, nil
}

func (c *Contributor) encode() ([]byte, error) {
	rec := contributorRecord{
		Pot:                c.Pot.Bytes(),
		Contributor:        c.Contributor.Bytes(),
		TotalContributed:   c.TotalContributed,
		ContributionCount:  c.ContributionCount,
		LastContributionAt: c.LastContributionAt,
		JoinedAt:           c.JoinedAt,
	}
	data, err := cbor.Encode(&rec)
	if err != nil {
		return nil, fmt.Errorf("encode contributor: %w", err)
	}
	return append([]byte{accountKindContributor}, data...), nil
}

func decodeContributor(data []byte) (*Contributor, error) {
	if len(data) == 0 || data[0] != accountKindContributor {
		return nil, errUnknownAccountKind
	}
	var rec contributorRecord
	if _, err := cbor.Decode(data[1:], &rec); err != nil {
		return nil, fmt.Errorf("decode contributor: %w", err)
	}
	ret := &Contributor{
		TotalContributed:   rec.TotalContributed,
		ContributionCount:  rec.ContributionCount,
		LastContributionAt: rec.LastContributionAt,
		JoinedAt:           rec.JoinedAt,
	}
	var err error
	if ret.Pot, err = ledger.NewAddress(rec.Pot); err != nil {
		return nil, fmt.Errorf("decode contributor pot: %w", err)
	}
	if ret.Contributor, err = ledger.NewAddress(rec.Contributor); err != nil {
		return nil, fmt.Errorf("decode contributor identity: %w", err)
	}
	return ret, nil
}

func addressesToBytes(addrs []ledger.Address) [][]byte {
	ret := make([][]byte, 0, len(addrs))
	for _, addr := range addrs {
		ret = append(ret, addr.Bytes())
	}
	return ret
}

func bytesToAddresses(data [][]byte) ([]ledger.Address, error) {
	ret := make([]ledger.Address, 0, len(data))
	for _, item := range data {
		addr, err := ledger.NewAddress(item)
		if err != nil {
			return nil, err
		}
		ret = append(ret, addr)
	}
	return ret, nil
}
