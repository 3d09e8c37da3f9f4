// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package multicall

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/allowlist"
	"github.com/luxfi/multicall/bridge"
	"github.com/luxfi/multicall/fee"
	"github.com/luxfi/multicall/scenario"
)

var (
	ErrUnauthorized              = errors.New("unauthorized")
	ErrUnknownOrDisabledScenario = errors.New("unknown or disabled scenario")
	ErrRouterNotAllowed          = errors.New("router not allowed")
	ErrRelayArityMismatch        = errors.New("relay call does not match bound arity")
	ErrInsufficientFee           = errors.New("insufficient fee")
	ErrValueBudgetExceeded       = errors.New("value budget exceeded")
	ErrReentrantCall             = errors.New("reentrant call")
	ErrInvalidInput              = errors.New("invalid input")
	ErrUnknownMethod             = errors.New("unknown method")
)

// Kind groups errors by who can fix them.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuthorization: the caller lacks the admin or operator capability.
	KindAuthorization
	// KindValidation: the batch or argument is malformed or not approved.
	KindValidation
	// KindEconomic: attached value does not cover the fee or the operations.
	KindEconomic
	// KindExecution: an operation failed; the error is a *CallError.
	KindExecution
	// KindConfiguration: a binding required by the call is missing.
	KindConfiguration
	// KindReentrancy: the executor was entered while a batch was running.
	KindReentrancy
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindEconomic:
		return "economic"
	case KindExecution:
		return "execution"
	case KindConfiguration:
		return "configuration"
	case KindReentrancy:
		return "reentrancy"
	default:
		return "unknown"
	}
}

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindAuthorization, []error{ErrUnauthorized}},
	{KindConfiguration, []error{
		fee.ErrOracleNotConfigured,
		fee.ErrOracleFailure,
		bridge.ErrBridgeNotConfigured,
		bridge.ErrApproveFailed,
		bridge.ErrApprovalOutstanding,
	}},
	{KindEconomic, []error{ErrInsufficientFee, ErrValueBudgetExceeded}},
	{KindValidation, []error{
		ErrUnknownOrDisabledScenario,
		ErrRouterNotAllowed,
		ErrRelayArityMismatch,
		ErrInvalidInput,
		ErrUnknownMethod,
		scenario.ErrInvalidPayload,
		scenario.ErrEmptyBatch,
		scenario.ErrUnknownScenario,
		scenario.ErrLabelTooLong,
		scenario.ErrZeroFingerprint,
		allowlist.ErrZeroAddress,
		allowlist.ErrTooManyRouters,
		fee.ErrMissingReceiver,
		fee.ErrMissingBaseToken,
		bridge.ErrUnknownArity,
	}},
}

// KindOf classifies [err]. Reentrancy wins over the operation failure that
// carries it, so a nested entry reports KindReentrancy.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrReentrantCall) {
		return KindReentrancy
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		return KindExecution
	}
	for _, group := range kinds {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.kind
			}
		}
	}
	return KindUnknown
}

// CallError reports the operation that aborted a batch.
type CallError struct {
	Index    int
	Dest     common.Address
	Selector scenario.Selector
	// Err is the failure returned by the destination, unchanged.
	Err error
	// ReturnData is whatever the destination returned alongside Err.
	ReturnData []byte
}

func (e *CallError) Error() string {
	return fmt.Sprintf("operation %d (%s on %s) failed: %v", e.Index, e.Selector, e.Dest, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
