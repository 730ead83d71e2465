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

package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	AddressLength = 32
	// AddressHRP is the bech32 human-readable part used when displaying addresses
	AddressHRP = "pot"
	// MaxSeedLength bounds each seed passed to DeriveAddress
	MaxSeedLength = 32

	deriveDomainTag   = "potluck:derive"
	identityDomainTag = "potluck:identity"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrSeedTooLong    = errors.New("address seed too long")
)

// Address identifies an account in the ledger. Wallet identities, program
// ids and program-owned accounts all share the same address space
type Address [AddressLength]byte

// NewAddress builds an Address from its raw bytes
func NewAddress(data []byte) (Address, error) {
	var ret Address
	if len(data) != AddressLength {
		return ret, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidAddress,
			AddressLength,
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

// ParseAddress accepts either the bech32 form produced by String or 64 hex characters
func ParseAddress(s string) (Address, error) {
	var ret Address
	if strings.HasPrefix(strings.ToLower(s), AddressHRP+"1") {
		hrp, data, err := bech32.Decode(s)
		if err != nil {
			return ret, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		if hrp != AddressHRP {
			return ret, fmt.Errorf("%w: unexpected prefix %q", ErrInvalidAddress, hrp)
		}
		conv, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return ret, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		return NewAddress(conv)
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return NewAddress(data)
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the bech32 encoding of the address
func (a Address) String() string {
	// Convert data to base32 and encode as bech32
	convData, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return hex.EncodeToString(a[:])
	}
	encoded, err := bech32.Encode(AddressHRP, convData)
	if err != nil {
		return hex.EncodeToString(a[:])
	}
	return encoded
}

// Hex returns the hex encoding of the address
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	tmp, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

// DeriveAddress deterministically derives a program-owned account address
// from the program id and an ordered list of seeds. Each seed is length
// prefixed so that ("ab", "c") and ("a", "bc") derive different addresses
func DeriveAddress(programID Address, seeds ...[]byte) (Address, error) {
	buf := make([]byte, 0, len(deriveDomainTag)+AddressLength+len(seeds)*(MaxSeedLength+1))
	buf = append(buf, deriveDomainTag...)
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Address{}, fmt.Errorf(
				"%w: %d bytes (max %d)",
				ErrSeedTooLong,
				len(seed),
				MaxSeedLength,
			)
		}
		buf = binary.AppendUvarint(buf, uint64(len(seed)))
		buf = append(buf, seed...)
	}
	buf = append(buf, programID[:]...)
	return Address(lcommon.Blake2b256Hash(buf)), nil
}

// IdentityFromKey returns the wallet identity for a public key or other key material
func IdentityFromKey(key []byte) Address {
	buf := make([]byte, 0, len(identityDomainTag)+len(key))
	buf = append(buf, identityDomainTag...)
	buf = append(buf, key...)
	return Address(lcommon.Blake2b256Hash(buf))
}
