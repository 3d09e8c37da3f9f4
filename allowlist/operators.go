// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package allowlist

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

var operatorsMemberSlot = contract.NamespaceSlot("multicall.operators.member")

// Operators is the set of callers trusted to run unrestricted batches.
type Operators struct {
	store contract.Storage
}

// NewOperators returns the operator set kept in [store].
func NewOperators(store contract.Storage) *Operators {
	return &Operators{store: store}
}

// SetOperator grants or revokes operator rights for [operator].
func (o *Operators) SetOperator(operator common.Address, allowed bool) error {
	if operator == (common.Address{}) {
		return ErrZeroAddress
	}
	o.store.SetBool(contract.MappingSlot(operatorsMemberSlot, operator.Bytes()), allowed)
	return nil
}

// IsOperator reports whether [operator] holds operator rights.
func (o *Operators) IsOperator(operator common.Address) bool {
	return o.store.Bool(contract.MappingSlot(operatorsMemberSlot, operator.Bytes()))
}
