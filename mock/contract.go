// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mock provides minimal collaborator contracts for exercising the
// gateway on the sim chain: a fungible token, a V2 style router, a token
// relay, a role-gated event logger and a fixed-rate price oracle.
package mock

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/luxfi/multicall/contract"
)

// GasCall is charged for every call into a mock.
const GasCall uint64 = 3_000

var ErrUnknownMethod = errors.New("unknown method")

// call is the state a mock method sees.
type call struct {
	host   contract.AccessibleState
	store  contract.Storage
	caller common.Address
	self   common.Address
	gas    uint64
}

type handler func(c *call, args []interface{}) ([]interface{}, error)

// dispatcher routes calldata to handlers by ABI method name.
type dispatcher struct {
	abi      contract.ExtendedABI
	handlers map[string]handler
}

func (d *dispatcher) run(
	host contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasCall)
	if err != nil {
		return nil, 0, err
	}
	name, err := d.abi.MethodName(input)
	if err != nil {
		return nil, remainingGas, fmt.Errorf("%w: %v", ErrUnknownMethod, err)
	}
	h, ok := d.handlers[name]
	if !ok {
		return nil, remainingGas, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	method := d.abi.Methods[name]
	if readOnly && !isView(method) {
		return nil, remainingGas, contract.ErrWriteProtection
	}
	args, err := d.abi.UnpackInput(name, input[contract.SelectorLen:], false)
	if err != nil {
		return nil, remainingGas, fmt.Errorf("%s: %w", name, err)
	}
	c := &call{
		host:   host,
		store:  contract.NewStorage(host.GetStateDB(), addr),
		caller: caller,
		self:   addr,
		gas:    remainingGas,
	}
	out, err := h(c, args)
	if err != nil {
		return nil, c.gas, fmt.Errorf("%s: %w", name, err)
	}
	ret, err := d.abi.PackOutput(name, out...)
	if err != nil {
		return nil, c.gas, err
	}
	return ret, c.gas, nil
}

func isView(method abi.Method) bool {
	return method.StateMutability == "view" || method.StateMutability == "pure"
}

// invoke calls [to] from the running mock, forwarding its remaining gas.
func (c *call) invoke(to common.Address, input []byte) ([]byte, error) {
	ret, left, err := c.host.Call(c.self, to, input, c.gas, nil, false)
	c.gas = left
	return ret, err
}

// emit appends an event log for [self].
func (c *call) emit(a contract.ExtendedABI, event string, args ...interface{}) error {
	topics, data, err := a.PackEvent(event, args...)
	if err != nil {
		return err
	}
	c.host.GetStateDB().AddLog(newLog(c.self, topics, data, c.host.GetBlockContext().Number().Uint64()))
	return nil
}

func revert(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", contract.ErrExecutionReverted, fmt.Sprintf(format, args...))
}

func newLog(addr common.Address, topics []common.Hash, data []byte, block uint64) *ethtypes.Log {
	return &ethtypes.Log{
		Address:     addr,
		Topics:      topics,
		Data:        data,
		BlockNumber: block,
	}
}
