// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scenario fingerprints batches by their ordered selector sequence and
// keeps the administrator-approved set of those fingerprints.
package scenario

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/multicall/contract"
)

var ErrInvalidPayload = errors.New("invalid payload: shorter than selector")

// Selector identifies the operation requested by a payload.
type Selector [contract.SelectorLen]byte

func (s Selector) String() string {
	return hexutil.Encode(s[:])
}

// SelectorOf returns the leading selector of [payload].
func SelectorOf(payload []byte) (Selector, error) {
	var sel Selector
	if len(payload) < contract.SelectorLen {
		return sel, fmt.Errorf("%w: %d bytes", ErrInvalidPayload, len(payload))
	}
	copy(sel[:], payload[:contract.SelectorLen])
	return sel, nil
}

// SelectorFromSignature computes the selector of a function signature such as
// "transfer(address,uint256)".
func SelectorFromSignature(signature string) Selector {
	var sel Selector
	copy(sel[:], contract.CalculateFunctionSelector(signature))
	return sel
}
