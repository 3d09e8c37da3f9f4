// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package multicall

import (
	_ "embed"
	"fmt"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/scenario"
)

var (
	//go:embed operator.abi
	operatorABI string

	// OperatorABI is the interface of the operator executor.
	OperatorABI = contract.ParseABI(operatorABI)
)

var _ contract.StatefulPrecompiledContract = (*OperatorExecutor)(nil)

// OperatorExecutor runs unrestricted batches for allowlisted operators, as
// used by relay fulfillment. It shares its settings, administrator and
// latch with the user executor.
type OperatorExecutor struct {
	settings common.Address
	log      log.Logger
}

// NewOperatorExecutor returns an executor whose settings live in [settings].
func NewOperatorExecutor(settings common.Address) *OperatorExecutor {
	return &OperatorExecutor{
		settings: settings,
		log:      log.NewTestLogger(log.InfoLevel),
	}
}

// SetLogger replaces the executor's logger.
func (e *OperatorExecutor) SetLogger(logger log.Logger) {
	e.log = logger
}

// Run executes the operator executor.
func (e *OperatorExecutor) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	name, err := OperatorABI.MethodName(input)
	if err != nil {
		return nil, suppliedGas, fmt.Errorf("%w: %v", ErrUnknownMethod, err)
	}
	if readOnly && !isView(OperatorABI.Methods[name]) {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	args := input[contract.SelectorLen:]
	s := NewSettings(accessibleState.GetStateDB(), e.settings)

	switch name {
	case "execute":
		return e.execute(accessibleState, s, caller, addr, args, suppliedGas)
	case "setOperator":
		return e.setOperator(s, caller, args, suppliedGas)
	case "setAdmin":
		return setAdmin(OperatorABI, s, caller, args, suppliedGas, e.log)
	case "isOperator":
		return e.isOperator(s, args, suppliedGas)
	case "admin":
		return readAddress(OperatorABI, name, s.Admin(), suppliedGas)
	default:
		return nil, suppliedGas, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
}

// execute runs a batch without fingerprint, router or fee checks. Operation
// values are paid from the executor's balance, attached value included.
func (e *OperatorExecutor) execute(
	host contract.AccessibleState,
	s *Settings,
	caller common.Address,
	self common.Address,
	args []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasExecuteBase)
	if err != nil {
		return nil, 0, err
	}
	release, err := s.lock()
	if err != nil {
		return nil, gas, err
	}
	defer release()

	if !s.Operators.IsOperator(caller) {
		return nil, gas, fmt.Errorf("%w: %s is not an operator", ErrUnauthorized, caller)
	}
	ops, err := unpackOperations(OperatorABI, args)
	if err != nil {
		return nil, gas, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(ops) == 0 {
		return nil, gas, scenario.ErrEmptyBatch
	}
	if gas, err = contract.DeductGas(gas, GasPerOperation*uint64(len(ops))); err != nil {
		return nil, 0, err
	}

	b := &batch{host: host, self: self, ops: ops}
	if gas, err = b.run(gas, nil); err != nil {
		e.log.Debug("operator batch aborted", "operator", caller, "err", err)
		return nil, gas, err
	}
	e.log.Debug("operator batch executed", "operator", caller, "operations", len(ops))
	return nil, gas, nil
}

func (e *OperatorExecutor) setOperator(s *Settings, caller common.Address, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, out, err := adminCall(OperatorABI, "setOperator", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	operator, allowed := out[0].(common.Address), out[1].(bool)
	if err := s.Operators.SetOperator(operator, allowed); err != nil {
		return nil, gas, err
	}
	e.log.Info("operator set", "operator", operator, "allowed", allowed)
	return nil, gas, nil
}

func (e *OperatorExecutor) isOperator(s *Settings, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	out, err := OperatorABI.UnpackInput("isOperator", args, false)
	if err != nil {
		return nil, gas, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ret, err := OperatorABI.PackOutput("isOperator", s.Operators.IsOperator(out[0].(common.Address)))
	return ret, gas, err
}
