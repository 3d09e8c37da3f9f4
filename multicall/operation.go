// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package multicall

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/scenario"
)

// Operation is one call of a batch. The executor never interprets Data
// beyond its selector.
type Operation struct {
	Dest  common.Address
	Data  []byte
	Value *uint256.Int
}

// Payload returns the calldata of the operation.
func (o Operation) Payload() []byte {
	return o.Data
}

// abiCall mirrors the (address,bytes,uint256) tuple of execute.
type abiCall struct {
	Target   common.Address `json:"target"`
	CallData []byte         `json:"callData"`
	Value    *big.Int       `json:"value"`
}

// PackExecute encodes an execute call for either executor.
func PackExecute(ops []Operation) ([]byte, error) {
	calls := make([]abiCall, len(ops))
	for i, op := range ops {
		value := new(big.Int)
		if op.Value != nil {
			value = op.Value.ToBig()
		}
		calls[i] = abiCall{Target: op.Dest, CallData: op.Data, Value: value}
	}
	return UserABI.Pack("execute", calls)
}

func unpackOperations(a contract.ExtendedABI, args []byte) ([]Operation, error) {
	var calls []abiCall
	if err := a.UnpackInputIntoInterface(&calls, "execute", args); err != nil {
		return nil, err
	}
	ops := make([]Operation, len(calls))
	for i, c := range calls {
		value, overflow := uint256.FromBig(c.Value)
		if overflow {
			return nil, ErrInvalidInput
		}
		ops[i] = Operation{Dest: c.Target, Data: c.CallData, Value: value}
	}
	return ops, nil
}

// totalValue sums the values of [ops], reporting overflow.
func totalValue(ops []Operation) (*uint256.Int, bool) {
	total := new(uint256.Int)
	for _, op := range ops {
		if op.Value == nil {
			continue
		}
		if _, overflow := total.AddOverflow(total, op.Value); overflow {
			return nil, true
		}
	}
	return total, false
}

// FingerprintOf is the fingerprint execute computes for [ops].
func FingerprintOf(ops []Operation) (common.Hash, error) {
	return scenario.Fingerprint(ops)
}
