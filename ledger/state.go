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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"time"

	"github.com/blinklabs-io/potluck/database"
	"github.com/blinklabs-io/potluck/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

type StateConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	Clock        Clock
	PromRegistry prometheus.Registerer
	Rent         *RentPolicy
}

// State is the database backed Ledger. Each invocation runs in its own blob
// transaction; invocations touching the same accounts concurrently are
// serialized by optimistic conflict detection
type State struct {
	config  StateConfig
	db      *database.Database
	rent    RentPolicy
	metrics stateMetrics
}

func NewState(cfg StateConfig) (*State, error) {
	if cfg.Database == nil {
		return nil, errors.New("no database provided")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	s := &State{
		config: cfg,
		db:     cfg.Database,
		rent:   DefaultRentPolicy(),
	}
	if cfg.Rent != nil {
		s.rent = *cfg.Rent
	}
	s.metrics.init(cfg.PromRegistry)
	return s, nil
}

// Database returns the underlying database
func (s *State) Database() *database.Database {
	return s.db
}

// Now returns the current trusted time
func (s *State) Now() time.Time {
	return s.config.Clock.Now()
}

// RentFloor returns the rent floor for an account reserving space bytes
func (s *State) RentFloor(space uint32) uint64 {
	return s.rent.Floor(space)
}

func (s *State) Invoke(
	ctx context.Context,
	program Address,
	signer Address,
	fn func(Invocation) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	txn := s.db.BlobTransaction(true)
	inv := &invocation{
		view: view{
			state: s,
			txn:   txn,
			now:   s.config.Clock.Now().Unix(),
		},
		program: program,
		signer:  signer,
	}
	err := txn.Do(func(_ *database.Txn) error {
		if err := fn(inv); err != nil {
			return err
		}
		// Don't commit work for a caller that has gone away
		return ctx.Err()
	})
	s.metrics.invokeLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, types.ErrBlobConflict) {
			s.metrics.invocations.WithLabelValues("conflict").Inc()
			s.config.Logger.Debug(
				"invocation conflicted with a concurrent update",
				"component", "ledger",
				"program", program.String(),
				"signer", signer.String(),
			)
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		s.metrics.invocations.WithLabelValues("failed").Inc()
		return err
	}
	s.metrics.invocations.WithLabelValues("ok").Inc()
	s.metrics.transferredTotal.Add(float64(inv.transferred))
	s.metrics.accountsCreated.Add(float64(inv.created))
	return nil
}

func (s *State) View(ctx context.Context, fn func(Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.BlobTransaction(false)
	defer txn.Release()
	return fn(&view{
		state: s,
		txn:   txn,
		now:   s.config.Clock.Now().Unix(),
	})
}

// Airdrop credits amount to the wallet at addr, creating it if needed.
// It is a development faucet and bypasses program ownership rules
func (s *State) Airdrop(ctx context.Context, addr Address, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.BlobTransaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		v := &view{state: s, txn: txn}
		acct, err := v.load(addr)
		if err != nil {
			if !errors.Is(err, ErrAccountNotFound) {
				return err
			}
			acct = &database.Account{}
		}
		newBalance, carry := bits.Add64(acct.Balance, amount, 0)
		if carry != 0 {
			return ErrBalanceOverflow
		}
		acct.Balance = newBalance
		return s.db.SetAccount(addr.Bytes(), acct, txn)
	})
	if err != nil {
		if errors.Is(err, types.ErrBlobConflict) {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return err
	}
	s.metrics.airdroppedTotal.Add(float64(amount))
	s.config.Logger.Info(
		"airdrop",
		"component", "ledger",
		"address", addr.String(),
		"amount", amount,
	)
	return nil
}

// view implements Reader over a blob transaction
type view struct {
	state *State
	txn   *database.Txn
	now   int64
}

func (v *view) Now() int64 {
	return v.now
}

func (v *view) load(addr Address) (*database.Account, error) {
	acct, err := v.state.db.GetAccount(addr.Bytes(), v.txn)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
		}
		return nil, err
	}
	return acct, nil
}

func (v *view) Get(addr Address) (*Account, error) {
	acct, err := v.load(addr)
	if err != nil {
		return nil, err
	}
	return toAccount(addr, acct)
}

func (v *view) Exists(addr Address) (bool, error) {
	_, err := v.load(addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (v *view) Balance(addr Address) (uint64, error) {
	acct, err := v.load(addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return acct.Balance, nil
}

func (v *view) RentFloor(space uint32) uint64 {
	return v.state.rent.Floor(space)
}

func (v *view) Spendable(addr Address) (uint64, error) {
	acct, err := v.load(addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return spendable(acct, v.state.rent), nil
}

func (v *view) AccountsByOwner(owner Address) ([]*Account, error) {
	entries, err := v.state.db.AccountsByOwner(owner.Bytes(), v.txn)
	if err != nil {
		return nil, err
	}
	ret := make([]*Account, 0, len(entries))
	for _, entry := range entries {
		addr, err := NewAddress(entry.Address)
		if err != nil {
			return nil, err
		}
		acct, err := toAccount(addr, &entry.Account)
		if err != nil {
			return nil, err
		}
		ret = append(ret, acct)
	}
	return ret, nil
}

// invocation implements Invocation over a read-write blob transaction
type invocation struct {
	view
	program     Address
	signer      Address
	transferred uint64
	created     uint64
}

func (i *invocation) Program() Address {
	return i.program
}

func (i *invocation) Signer() Address {
	return i.signer
}

func (i *invocation) Allocate(
	addr Address,
	payer Address,
	space uint32,
	data []byte,
) error {
	if len(data) > int(space) {
		return fmt.Errorf(
			"%w: %d bytes into %d",
			ErrAccountTooLarge,
			len(data),
			space,
		)
	}
	acct, err := i.load(addr)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			return err
		}
		acct = &database.Account{}
	} else if len(acct.Owner) > 0 || acct.Space > 0 || len(acct.Data) > 0 {
		return fmt.Errorf("%w: %s", ErrAccountExists, addr)
	}
	// An existing bare wallet at addr keeps its balance and only the
	// shortfall up to the rent floor is charged
	floor := i.state.rent.Floor(space)
	if floor > acct.Balance {
		if err := i.Transfer(payer, addr, floor-acct.Balance); err != nil {
			return err
		}
		// Reload to pick up the credit
		acct, err = i.load(addr)
		if err != nil {
			return err
		}
	}
	acct.Owner = i.program.Bytes()
	acct.Space = space
	acct.Data = append([]byte(nil), data...)
	if err := i.state.db.SetAccount(addr.Bytes(), acct, i.txn); err != nil {
		return err
	}
	i.created++
	return nil
}

func (i *invocation) SetData(addr Address, data []byte) error {
	acct, err := i.load(addr)
	if err != nil {
		return err
	}
	if !bytes.Equal(acct.Owner, i.program[:]) {
		return fmt.Errorf("%w: %s", ErrNotOwner, addr)
	}
	if len(data) > int(acct.Space) {
		return fmt.Errorf(
			"%w: %d bytes into %d",
			ErrAccountTooLarge,
			len(data),
			acct.Space,
		)
	}
	acct.Data = append([]byte(nil), data...)
	return i.state.db.SetAccount(addr.Bytes(), acct, i.txn)
}

func (i *invocation) Transfer(from Address, to Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	src, err := i.load(from)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return fmt.Errorf("%w: %s", ErrInsufficientBalance, from)
		}
		return err
	}
	// The signer may spend from its own wallet. Program owned accounts may
	// only be debited by their program
	if len(src.Owner) > 0 {
		if !bytes.Equal(src.Owner, i.program[:]) {
			return fmt.Errorf("%w: %s", ErrUnauthorizedDebit, from)
		}
	} else if from != i.signer {
		return fmt.Errorf("%w: %s", ErrUnauthorizedDebit, from)
	}
	if spendable(src, i.state.rent) < amount {
		return fmt.Errorf(
			"%w: %s has %d spendable, needs %d",
			ErrInsufficientBalance,
			from,
			spendable(src, i.state.rent),
			amount,
		)
	}
	if from == to {
		return nil
	}
	dst, err := i.load(to)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			return err
		}
		dst = &database.Account{}
	}
	newBalance, carry := bits.Add64(dst.Balance, amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}
	src.Balance -= amount
	dst.Balance = newBalance
	if err := i.state.db.SetAccount(from.Bytes(), src, i.txn); err != nil {
		return err
	}
	if err := i.state.db.SetAccount(to.Bytes(), dst, i.txn); err != nil {
		return err
	}
	i.transferred += amount
	return nil
}

func spendable(acct *database.Account, rent RentPolicy) uint64 {
	floor := rent.Floor(acct.Space)
	if acct.Balance <= floor {
		return 0
	}
	return acct.Balance - floor
}

func toAccount(addr Address, acct *database.Account) (*Account, error) {
	ret := &Account{
		Address: addr,
		Balance: acct.Balance,
		Space:   acct.Space,
		Data:    acct.Data,
	}
	if len(acct.Owner) > 0 {
		owner, err := NewAddress(acct.Owner)
		if err != nil {
			return nil, fmt.Errorf("account %s owner: %w", addr, err)
		}
		ret.Owner = owner
	}
	return ret, nil
}
