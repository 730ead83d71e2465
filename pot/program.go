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
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/potluck/event"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProgramID is the address of the pot program. Every pot and contributor
// account is owned by it
var ProgramID = ledger.IdentityFromKey([]byte("potluck:program:pot:v1"))

const tracerName = "github.com/blinklabs-io/potluck/pot"

type ProgramConfig struct {
	Logger         *slog.Logger
	Ledger         ledger.Ledger
	EventBus       *event.EventBus
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
}

// Program executes pot instructions against a ledger
type Program struct {
	config  ProgramConfig
	ledger  ledger.Ledger
	tracer  trace.Tracer
	metrics programMetrics
}

func NewProgram(cfg ProgramConfig) (*Program, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("no ledger provided")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	p := &Program{
		config: cfg,
		ledger: cfg.Ledger,
		tracer: cfg.TracerProvider.Tracer(tracerName),
	}
	p.metrics.init(cfg.PromRegistry)
	return p, nil
}

// invoke runs fn as one atomic instruction on behalf of signer
func (p *Program) invoke(
	ctx context.Context,
	instruction string,
	signer ledger.Address,
	potAddr ledger.Address,
	fn func(ledger.Invocation) error,
) error {
	ctx, span := p.tracer.Start(
		ctx,
		"pot."+instruction,
		trace.WithAttributes(
			attribute.String("pot.signer", signer.String()),
			attribute.String("pot.address", potAddr.String()),
		),
	)
	defer span.End()
	start := time.Now()
	err := p.ledger.Invoke(ctx, ProgramID, signer, fn)
	p.metrics.instructionLatency.WithLabelValues(instruction).
		Observe(time.Since(start).Seconds())
	result := resultLabel(err)
	p.metrics.instructions.WithLabelValues(instruction, result).Inc()
	span.SetAttributes(attribute.String("pot.result", result))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		p.config.Logger.Debug(
			"instruction failed",
			"component", "pot",
			"instruction", instruction,
			"signer", signer.String(),
			"pot", potAddr.String(),
			"error", err,
		)
		return err
	}
	return nil
}

// fundsError reports a failed debit as ErrInsufficientFunds while keeping the
// ledger detail in the chain
func fundsError(err error) error {
	if errors.Is(err, ledger.ErrInsufficientBalance) {
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	return err
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if perr, ok := AsProgramError(err); ok {
		return perr.Name
	}
	switch {
	case errors.Is(err, ledger.ErrConflict):
		return "conflict"
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}

func (p *Program) publish(eventType event.EventType, data PotEvent) {
	if p.config.EventBus == nil {
		return
	}
	p.config.EventBus.Publish(eventType, event.NewEvent(eventType, data))
}

func loadPot(r ledger.Reader, addr ledger.Address) (*Pot, error) {
	acct, err := r.Get(addr)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPotNotFound, addr)
		}
		return nil, err
	}
	// A bare wallet at the address means the pot was never created
	if acct.Owner.IsZero() && acct.Space == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPotNotFound, addr)
	}
	if acct.Owner != ProgramID {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccount, addr)
	}
	ret, err := decodePot(acct.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAccount, addr, err)
	}
	ret.Address = addr
	return ret, nil
}

func storePot(inv ledger.Invocation, pot *Pot) error {
	data, err := pot.encode()
	if err != nil {
		return err
	}
	return inv.SetData(pot.Address, data)
}

// loadContributor returns nil without error if the contributor account does not exist yet
func loadContributor(r ledger.Reader, addr ledger.Address) (*Contributor, error) {
	acct, err := r.Get(addr)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if acct.Owner.IsZero() && acct.Space == 0 {
		return nil, nil
	}
	if acct.Owner != ProgramID {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccount, addr)
	}
	ret, err := decodeContributor(acct.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAccount, addr, err)
	}
	ret.Address = addr
	return ret, nil
}

// loadContributors returns the contributor accounts of every identity in
// the pot's contributor set that has contributed
func loadContributors(r ledger.Reader, pot *Pot) ([]*Contributor, error) {
	ret := make([]*Contributor, 0, len(pot.Contributors))
	for _, identity := range pot.Contributors {
		contrib, err := loadContributor(r, ContributorAddress(pot.Address, identity))
		if err != nil {
			return nil, err
		}
		if contrib != nil {
			ret = append(ret, contrib)
		}
	}
	return ret, nil
}
