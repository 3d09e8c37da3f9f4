// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mock

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

const oracleABI = `[
	{"type":"function","name":"consult","stateMutability":"view","inputs":[{"name":"token","type":"address"},{"name":"amountIn","type":"uint256"}],"outputs":[{"name":"amountOut","type":"uint256"}]},
	{"type":"function","name":"setRate","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"rate","type":"uint256"}],"outputs":[]}
]`

// OracleABI is the quoting interface plus the mock's rate setter.
var OracleABI = contract.ParseABI(oracleABI)

// RateScale is the fixed point scale of oracle rates.
var RateScale = uint256.NewInt(1_000_000_000_000_000_000)

var oracleRateSlot = contract.NamespaceSlot("mock.oracle.rate")

// Oracle quotes amountIn*rate/RateScale native units per token. Tokens
// without a rate revert.
type Oracle struct {
	dispatcher
}

var _ contract.StatefulPrecompiledContract = (*Oracle)(nil)

func NewOracle() *Oracle {
	o := &Oracle{}
	o.dispatcher = dispatcher{
		abi: OracleABI,
		handlers: map[string]handler{
			"consult": o.consult,
			"setRate": o.setRate,
		},
	}
	return o
}

func (o *Oracle) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	return o.run(accessibleState, caller, addr, input, suppliedGas, readOnly)
}

func (o *Oracle) consult(c *call, args []interface{}) ([]interface{}, error) {
	token, amount := args[0].(common.Address), toUint256(args[1])
	rate := c.store.Uint256(contract.MappingSlot(oracleRateSlot, token.Bytes()))
	if rate.IsZero() {
		return nil, revert("no price for %s", token)
	}
	out, overflow := new(uint256.Int).MulDivOverflow(amount, rate, RateScale)
	if overflow {
		return nil, revert("quote overflow")
	}
	return []interface{}{out.ToBig()}, nil
}

func (o *Oracle) setRate(c *call, args []interface{}) ([]interface{}, error) {
	token, rate := args[0].(common.Address), args[1].(*big.Int)
	c.store.SetUint256(contract.MappingSlot(oracleRateSlot, token.Bytes()), toUint256(rate))
	return nil, nil
}
