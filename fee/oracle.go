// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fee computes the native-currency payment a user batch must attach,
// quoting a reference-asset amount through an external price oracle.
package fee

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

const oracleABI = `[
	{
		"type": "function",
		"name": "consult",
		"stateMutability": "view",
		"inputs": [
			{"name": "token", "type": "address"},
			{"name": "amountIn", "type": "uint256"}
		],
		"outputs": [
			{"name": "amountOut", "type": "uint256"}
		]
	}
]`

// OracleABI is the quoting interface expected from an oracle.
var OracleABI = contract.ParseABI(oracleABI)

var ErrOracleFailure = errors.New("oracle failure")

// OracleAdapter converts reference-asset amounts into native currency by
// calling consult(token, amountIn) on an oracle.
type OracleAdapter struct {
	// self is the account the oracle sees as caller.
	self common.Address
}

// NewOracleAdapter returns an adapter that consults oracles as [self].
func NewOracleAdapter(self common.Address) *OracleAdapter {
	return &OracleAdapter{self: self}
}

// Consult quotes [amount] of [token] on [oracle] with a static call.
func (a *OracleAdapter) Consult(
	host contract.Caller,
	oracle common.Address,
	token common.Address,
	amount *uint256.Int,
	gas uint64,
) (*uint256.Int, uint64, error) {
	input, err := OracleABI.Pack("consult", token, amount.ToBig())
	if err != nil {
		return nil, gas, fmt.Errorf("%w: pack consult: %v", ErrOracleFailure, err)
	}
	ret, remainingGas, err := host.Call(a.self, oracle, input, gas, new(uint256.Int), true)
	if err != nil {
		return nil, remainingGas, fmt.Errorf("%w: consult %s: %w", ErrOracleFailure, oracle, err)
	}
	out, err := OracleABI.Unpack("consult", ret)
	if err != nil {
		return nil, remainingGas, fmt.Errorf("%w: malformed reply from %s: %v", ErrOracleFailure, oracle, err)
	}
	quoted, ok := out[0].(*big.Int)
	if !ok {
		return nil, remainingGas, fmt.Errorf("%w: unexpected reply type %T", ErrOracleFailure, out[0])
	}
	result, overflow := uint256.FromBig(quoted)
	if overflow {
		return nil, remainingGas, fmt.Errorf("%w: quote overflows uint256", ErrOracleFailure)
	}
	return result, remainingGas, nil
}
