// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mock

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

const erc20ABI = `[
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

// ERC20ABI is the fungible token interface.
var ERC20ABI = contract.ParseABI(erc20ABI)

var (
	erc20SupplySlot    = contract.NamespaceSlot("mock.erc20.totalSupply")
	erc20BalanceSlot   = contract.NamespaceSlot("mock.erc20.balances")
	erc20AllowanceSlot = contract.NamespaceSlot("mock.erc20.allowances")
)

// MaxUint256 is the allowance treated as unlimited.
var MaxUint256 = new(uint256.Int).SetAllOne()

// ERC20 is a fungible token with an open mint for test setup. An allowance
// of MaxUint256 is never decremented.
type ERC20 struct {
	dispatcher
}

var _ contract.StatefulPrecompiledContract = (*ERC20)(nil)

func NewERC20() *ERC20 {
	t := &ERC20{}
	t.dispatcher = dispatcher{
		abi: ERC20ABI,
		handlers: map[string]handler{
			"totalSupply":  t.totalSupply,
			"balanceOf":    t.balanceOf,
			"allowance":    t.allowance,
			"transfer":     t.transfer,
			"transferFrom": t.transferFrom,
			"approve":      t.approve,
			"mint":         t.mint,
		},
	}
	return t
}

func (t *ERC20) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	return t.run(accessibleState, caller, addr, input, suppliedGas, readOnly)
}

func balanceSlot(owner common.Address) common.Hash {
	return contract.MappingSlot(erc20BalanceSlot, owner.Bytes())
}

func allowanceSlot(owner, spender common.Address) common.Hash {
	return contract.MappingSlot(contract.MappingSlot(erc20AllowanceSlot, owner.Bytes()), spender.Bytes())
}

func (t *ERC20) totalSupply(c *call, _ []interface{}) ([]interface{}, error) {
	return []interface{}{c.store.Uint256(erc20SupplySlot).ToBig()}, nil
}

func (t *ERC20) balanceOf(c *call, args []interface{}) ([]interface{}, error) {
	owner := args[0].(common.Address)
	return []interface{}{c.store.Uint256(balanceSlot(owner)).ToBig()}, nil
}

func (t *ERC20) allowance(c *call, args []interface{}) ([]interface{}, error) {
	owner, spender := args[0].(common.Address), args[1].(common.Address)
	return []interface{}{c.store.Uint256(allowanceSlot(owner, spender)).ToBig()}, nil
}

func (t *ERC20) transfer(c *call, args []interface{}) ([]interface{}, error) {
	to, amount := args[0].(common.Address), toUint256(args[1])
	if err := t.move(c, c.caller, to, amount); err != nil {
		return nil, err
	}
	return []interface{}{true}, nil
}

func (t *ERC20) transferFrom(c *call, args []interface{}) ([]interface{}, error) {
	from, to, amount := args[0].(common.Address), args[1].(common.Address), toUint256(args[2])
	slot := allowanceSlot(from, c.caller)
	allowed := c.store.Uint256(slot)
	if allowed.Lt(amount) {
		return nil, revert("insufficient allowance: %s < %s", allowed, amount)
	}
	if !allowed.Eq(MaxUint256) {
		c.store.SetUint256(slot, new(uint256.Int).Sub(allowed, amount))
	}
	if err := t.move(c, from, to, amount); err != nil {
		return nil, err
	}
	return []interface{}{true}, nil
}

func (t *ERC20) approve(c *call, args []interface{}) ([]interface{}, error) {
	spender, amount := args[0].(common.Address), toUint256(args[1])
	if spender == (common.Address{}) {
		return nil, revert("approve to the zero address")
	}
	c.store.SetUint256(allowanceSlot(c.caller, spender), amount)
	if err := c.emit(ERC20ABI, "Approval", c.caller, spender, amount.ToBig()); err != nil {
		return nil, err
	}
	return []interface{}{true}, nil
}

func (t *ERC20) mint(c *call, args []interface{}) ([]interface{}, error) {
	to, amount := args[0].(common.Address), toUint256(args[1])
	supply, overflow := new(uint256.Int).AddOverflow(c.store.Uint256(erc20SupplySlot), amount)
	if overflow {
		return nil, revert("supply overflow")
	}
	c.store.SetUint256(erc20SupplySlot, supply)
	bal := c.store.Uint256(balanceSlot(to))
	c.store.SetUint256(balanceSlot(to), bal.Add(bal, amount))
	return nil, c.emit(ERC20ABI, "Transfer", common.Address{}, to, amount.ToBig())
}

func (t *ERC20) move(c *call, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return revert("transfer to the zero address")
	}
	fromBal := c.store.Uint256(balanceSlot(from))
	if fromBal.Lt(amount) {
		return revert("transfer amount exceeds balance: %s < %s", fromBal, amount)
	}
	c.store.SetUint256(balanceSlot(from), new(uint256.Int).Sub(fromBal, amount))
	toBal := c.store.Uint256(balanceSlot(to))
	c.store.SetUint256(balanceSlot(to), toBal.Add(toBal, amount))
	return c.emit(ERC20ABI, "Transfer", from, to, amount.ToBig())
}

func toUint256(v interface{}) *uint256.Int {
	out, _ := uint256.FromBig(v.(*big.Int))
	return out
}
