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
)

// ProgramError is a typed instruction failure. Every handler failure that is
// not an environment error unwraps to one of the ProgramError values below
type ProgramError struct {
	Name    string
	Message string
	Code    uint32
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

const programErrorBase = 6000

var programErrors []*ProgramError

func newProgramError(name string, msg string) *ProgramError {
	ret := &ProgramError{
		Name:    name,
		Message: msg,
		Code:    programErrorBase + uint32(len(programErrors)),
	}
	programErrors = append(programErrors, ret)
	return ret
}

// Codes are assigned in declaration order. Append new errors at the end
var (
	ErrNameTooLong             = newProgramError("NameTooLong", "pot name exceeds 32 bytes")
	ErrDescriptionTooLong      = newProgramError("DescriptionTooLong", "pot description exceeds 200 bytes")
	ErrInvalidTargetAmount     = newProgramError("InvalidTargetAmount", "target amount must be greater than zero")
	ErrInvalidUnlockPeriod     = newProgramError("InvalidUnlockPeriod", "unlock period must be at least one day")
	ErrInvalidSignersRequired  = newProgramError("InvalidSignersRequired", "signers required must be between 1 and 10")
	ErrInvalidAmount           = newProgramError("InvalidAmount", "amount must be greater than zero")
	ErrPotAlreadyReleased      = newProgramError("PotAlreadyReleased", "pot funds have already been released")
	ErrNotAContributor         = newProgramError("NotAContributor", "caller is not a contributor to this pot")
	ErrAlreadySigned           = newProgramError("AlreadySigned", "caller has already signed the release")
	ErrAlreadyAContributor     = newProgramError("AlreadyAContributor", "identity is already a contributor to this pot")
	ErrTimeLockNotExpired      = newProgramError("TimeLockNotExpired", "pot is still time-locked")
	ErrInsufficientSignatures  = newProgramError("InsufficientSignatures", "not enough release signatures")
	ErrInsufficientFunds       = newProgramError("InsufficientFunds", "spendable balance is below the amount required")
	ErrOverflow                = newProgramError("Overflow", "arithmetic overflow")
	ErrUnauthorized            = newProgramError("Unauthorized", "caller is not the pot authority")
	ErrAlreadyExists           = newProgramError("AlreadyExists", "a pot with this name already exists for this authority")
	ErrPotNotFound             = newProgramError("PotNotFound", "pot not found")
	ErrContributorLimitReached = newProgramError("ContributorLimitReached", "pot already has 20 contributors")
	ErrSignatureLimitReached   = newProgramError("SignatureLimitReached", "pot already holds 10 signatures")
	ErrInvalidAccount          = newProgramError("InvalidAccount", "account is not a valid pot program account")
	ErrInvalidRecipient        = newProgramError("InvalidRecipient", "recipient must be a wallet other than the pot")
	ErrContributorNotFound     = newProgramError("ContributorNotFound", "contributor account not found")
)

// ProgramErrors returns every program error in code order
func ProgramErrors() []*ProgramError {
	return append([]*ProgramError(nil), programErrors...)
}

// ErrorByCode returns the program error with the given code, or nil
func ErrorByCode(code uint32) *ProgramError {
	if code < programErrorBase || code-programErrorBase >= uint32(len(programErrors)) {
		return nil
	}
	return programErrors[code-programErrorBase]
}

// AsProgramError extracts the ProgramError from an error chain
func AsProgramError(err error) (*ProgramError, bool) {
	var ret *ProgramError
	if errors.As(err, &ret) {
		return ret, true
	}
	return nil, false
}
