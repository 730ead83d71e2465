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
	"context"
	"errors"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientBalance = errors.New("insufficient spendable balance")
	ErrAccountTooLarge     = errors.New("data exceeds account space")
	ErrNotOwner            = errors.New("account not owned by invoking program")
	ErrUnauthorizedDebit   = errors.New("debit not authorized")
	ErrBalanceOverflow     = errors.New("balance overflow")
	// ErrConflict is returned when a concurrent invocation committed a
	// change to an account this invocation read. Nothing was applied
	ErrConflict = errors.New("conflicting concurrent update")
)

// Account is a snapshot of a ledger account
type Account struct {
	Address Address
	// Owner is the program allowed to modify Data. Wallet accounts have no owner
	Owner   Address
	Balance uint64
	// Space is the number of data bytes reserved for the account
	Space uint32
	Data  []byte
}

// Reader provides read access to accounts at a consistent point in time
type Reader interface {
	// Now returns the trusted wall-clock time in unix seconds
	Now() int64
	Get(addr Address) (*Account, error)
	Exists(addr Address) (bool, error)
	Balance(addr Address) (uint64, error)
	// RentFloor returns the balance an account reserving space bytes must retain
	RentFloor(space uint32) uint64
	// Spendable returns the balance that can be debited without dipping
	// below the account's rent floor
	Spendable(addr Address) (uint64, error)
	AccountsByOwner(owner Address) ([]*Account, error)
}

// Invocation is the view a program gets while executing one instruction.
// All changes made through it are applied together or not at all
type Invocation interface {
	Reader
	// Program returns the id of the executing program
	Program() Address
	// Signer returns the identity that authorized the instruction
	Signer() Address
	// Allocate creates a new account at addr owned by the executing program,
	// reserving space bytes and funding its rent floor from payer
	Allocate(addr Address, payer Address, space uint32, data []byte) error
	// SetData replaces the data of an account owned by the executing program
	SetData(addr Address, data []byte) error
	// Transfer moves amount from one account to another. The source must be
	// the signer's wallet or an account owned by the executing program
	Transfer(from Address, to Address, amount uint64) error
}

// Ledger executes instructions atomically against account state
type Ledger interface {
	// Invoke runs fn as program on behalf of signer. If fn returns an error
	// every change it made is discarded
	Invoke(
		ctx context.Context,
		program Address,
		signer Address,
		fn func(Invocation) error,
	) error
	// View runs fn against a read-only snapshot
	View(ctx context.Context, fn func(Reader) error) error
}
