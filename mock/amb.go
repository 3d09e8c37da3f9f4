// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mock

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

// Both relayTokens shapes seen on deployed mediators. Go's ABI type keys
// overloads as relayTokens and relayTokens0.
const ambABI = `[
	{"type":"function","name":"relayTokens","stateMutability":"nonpayable","inputs":[{"name":"receiver","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"relayTokens","stateMutability":"nonpayable","inputs":[{"name":"sender","type":"address"},{"name":"receiver","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"relayed","stateMutability":"view","inputs":[{"name":"receiver","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"TokensRelayed","anonymous":false,"inputs":[{"name":"sender","type":"address","indexed":true},{"name":"receiver","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]}
]`

// AMBABI is the token relay interface in both arities.
var AMBABI = contract.ParseABI(ambABI)

var ambRelayedSlot = contract.NamespaceSlot("mock.amb.relayed")

// AMB locks a mirror asset pulled from the caller and records the amount
// owed to each receiver on the other side.
type AMB struct {
	dispatcher
	token common.Address
}

var _ contract.StatefulPrecompiledContract = (*AMB)(nil)

// NewAMB returns a relay for [token].
func NewAMB(token common.Address) *AMB {
	a := &AMB{token: token}
	a.dispatcher = dispatcher{
		abi: AMBABI,
		handlers: map[string]handler{
			"relayTokens":  a.relayTokens,
			"relayTokens0": a.relayTokensFrom,
			"relayed":      a.relayed,
		},
	}
	return a
}

func (a *AMB) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	return a.run(accessibleState, caller, addr, input, suppliedGas, readOnly)
}

func (a *AMB) relayTokens(c *call, args []interface{}) ([]interface{}, error) {
	return nil, a.relay(c, c.caller, args[0].(common.Address), toUint256(args[1]))
}

func (a *AMB) relayTokensFrom(c *call, args []interface{}) ([]interface{}, error) {
	return nil, a.relay(c, args[0].(common.Address), args[1].(common.Address), toUint256(args[2]))
}

func (a *AMB) relayed(c *call, args []interface{}) ([]interface{}, error) {
	receiver := args[0].(common.Address)
	return []interface{}{c.store.Uint256(contract.MappingSlot(ambRelayedSlot, receiver.Bytes())).ToBig()}, nil
}

func (a *AMB) relay(c *call, sender, receiver common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return revert("zero amount")
	}
	pull, err := ERC20ABI.Pack("transferFrom", c.caller, c.self, amount.ToBig())
	if err != nil {
		return err
	}
	if _, err := c.invoke(a.token, pull); err != nil {
		return err
	}
	slot := contract.MappingSlot(ambRelayedSlot, receiver.Bytes())
	total := c.store.Uint256(slot)
	c.store.SetUint256(slot, total.Add(total, amount))
	return c.emit(AMBABI, "TokensRelayed", sender, receiver, amount.ToBig())
}
