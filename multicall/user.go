// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package multicall implements the batch executors of the gateway. The user
// executor runs a batch only when the ordered selectors of its operations
// match an administrator-approved scenario; the operator executor runs any
// batch for allowlisted operators. Both run batches atomically under a
// shared reentrancy latch.
package multicall

import (
	"bytes"
	_ "embed"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
	"github.com/luxfi/multicall/bridge"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/scenario"
)

// Gas costs
const (
	GasRead         uint64 = 200    // Reading settings
	GasWrite        uint64 = 5_000  // Writing settings
	GasExecuteBase  uint64 = 10_000 // Entering a batch
	GasPerOperation uint64 = 700    // Fingerprinting and dispatching one operation
	GasPerRouter    uint64 = 2_000  // Storing one router
)

var (
	//go:embed user.abi
	userABI string

	// UserABI is the interface of the user executor.
	UserABI = contract.ParseABI(userABI)
)

var _ contract.StatefulPrecompiledContract = (*UserExecutor)(nil)

// UserExecutor runs scenario-gated batches. Operations are called with the
// executor's own address as caller, so they act on its balances and
// allowances.
type UserExecutor struct {
	settings common.Address
	log      log.Logger
}

// NewUserExecutor returns an executor whose settings live in [settings].
func NewUserExecutor(settings common.Address) *UserExecutor {
	return &UserExecutor{
		settings: settings,
		log:      log.NewTestLogger(log.InfoLevel),
	}
}

// SetLogger replaces the executor's logger.
func (e *UserExecutor) SetLogger(logger log.Logger) {
	e.log = logger
}

// Run executes the user executor.
func (e *UserExecutor) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	name, err := UserABI.MethodName(input)
	if err != nil {
		return nil, suppliedGas, fmt.Errorf("%w: %v", ErrUnknownMethod, err)
	}
	if readOnly && !isView(UserABI.Methods[name]) {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	args := input[contract.SelectorLen:]
	s := NewSettings(accessibleState.GetStateDB(), e.settings)

	switch name {
	case "execute":
		return e.execute(accessibleState, s, caller, addr, args, suppliedGas)

	// Pure helpers
	case "countScenarioHash":
		return e.countScenarioHash(args, suppliedGas)
	case "selectorOf":
		return e.selectorOf(args, suppliedGas)

	// Admin functions
	case "setScenario":
		return e.setScenario(s, caller, args, suppliedGas)
	case "setScenarioEnabled":
		return e.setScenarioEnabled(s, caller, args, suppliedGas)
	case "setResolvedRouters":
		return e.setResolvedRouters(s, caller, args, suppliedGas)
	case "setOracle":
		return e.setOracle(s, caller, args, suppliedGas)
	case "setFee":
		return e.setFee(s, caller, args, suppliedGas)
	case "setRelay":
		return e.setRelay(accessibleState, s, caller, args, suppliedGas)
	case "setMirrorAsset":
		return e.setMirrorAsset(accessibleState, s, caller, args, suppliedGas)
	case "approveRelay":
		return e.approveRelay(accessibleState, s, caller, suppliedGas)
	case "setEventLogger":
		return e.setEventLogger(s, caller, args, suppliedGas)
	case "setAdmin":
		return setAdmin(UserABI, s, caller, args, suppliedGas, e.log)

	// View functions
	case "getScenario":
		return e.getScenario(s, args, suppliedGas)
	case "getResolvedRouters":
		return e.getResolvedRouters(s, suppliedGas)
	case "isResolvedRouter":
		return e.isResolvedRouter(s, args, suppliedGas)
	case "getFeeConfig":
		return e.getFeeConfig(s, suppliedGas)
	case "calcFee":
		return e.calcFee(accessibleState, s, suppliedGas)
	case "getRelayBinding":
		return e.getRelayBinding(s, suppliedGas)
	case "eventLogger":
		return readAddress(UserABI, name, s.EventLogger(), suppliedGas)
	case "admin":
		return readAddress(UserABI, name, s.Admin(), suppliedGas)

	default:
		return nil, suppliedGas, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
}

// execute validates a batch against the approved scenarios, collects the fee
// and runs the batch atomically. Nothing is written before every check has
// passed.
func (e *UserExecutor) execute(
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

	ops, err := unpackOperations(UserABI, args)
	if err != nil {
		return nil, gas, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if gas, err = contract.DeductGas(gas, GasPerOperation*uint64(len(ops))); err != nil {
		return nil, 0, err
	}

	fp, err := scenario.Fingerprint(ops)
	if err != nil {
		return nil, gas, err
	}
	if !s.Scenarios.IsEnabled(fp) {
		return nil, gas, fmt.Errorf("%w: %s", ErrUnknownOrDisabledScenario, fp)
	}
	for i, op := range ops {
		if scenario.IsRouterCall(op.Data) && !s.Routers.IsAllowedRouter(op.Dest) {
			return nil, gas, fmt.Errorf("%w: operation %d targets %s", ErrRouterNotAllowed, i, op.Dest)
		}
	}

	if err := checkRelayCalls(s.Bridge.Binding(), ops); err != nil {
		return nil, gas, err
	}

	due, gas, err := s.Fees.CalcFee(host, gas)
	if err != nil {
		return nil, gas, err
	}
	attached := host.CallValue()
	if attached.Lt(due) {
		return nil, gas, fmt.Errorf("%w: attached %s, fee %s", ErrInsufficientFee, attached, due)
	}
	budget := new(uint256.Int).Sub(attached, due)
	total, overflow := totalValue(ops)
	if overflow {
		return nil, gas, fmt.Errorf("%w: operation values overflow", ErrValueBudgetExceeded)
	}
	if total.Gt(budget) {
		return nil, gas, fmt.Errorf("%w: operations need %s, budget %s", ErrValueBudgetExceeded, total, budget)
	}

	receiver := s.Fees.Config().Receiver
	b := &batch{host: host, self: self, ops: ops}
	gas, err = b.run(gas, func(gas uint64) (uint64, error) {
		if due.IsZero() {
			return gas, nil
		}
		_, gas, err := host.Call(self, receiver, nil, gas, due, false)
		if err != nil {
			return gas, fmt.Errorf("fee payment to %s: %w", receiver, err)
		}
		return gas, nil
	})
	if err != nil {
		e.log.Debug("batch aborted",
			"caller", caller,
			"scenario", fp,
			"err", err,
		)
		return nil, gas, err
	}
	e.log.Debug("batch executed",
		"caller", caller,
		"scenario", fp,
		"operations", len(ops),
		"fee", due,
	)
	return nil, gas, nil
}

func (e *UserExecutor) countScenarioHash(args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	out, err := UserABI.UnpackInput("countScenarioHash", args, false)
	if err != nil {
		return nil, suppliedGas, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	payloads := out[0].([][]byte)
	gas, err := contract.DeductGas(suppliedGas, GasRead+GasPerOperation*uint64(len(payloads)))
	if err != nil {
		return nil, 0, err
	}
	fp, err := scenario.FingerprintOfPayloads(payloads)
	if err != nil {
		return nil, gas, err
	}
	ret, err := UserABI.PackOutput("countScenarioHash", [32]byte(fp))
	return ret, gas, err
}

func (e *UserExecutor) selectorOf(args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	out, err := UserABI.UnpackInput("selectorOf", args, false)
	if err != nil {
		return nil, gas, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	sel, err := scenario.SelectorOf(out[0].([]byte))
	if err != nil {
		return nil, gas, err
	}
	ret, err := UserABI.PackOutput("selectorOf", [4]byte(sel))
	return ret, gas, err
}

func (e *UserExecutor) setScenario(s *Settings, caller common.Address, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, out, err := adminCall(UserABI, "setScenario", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	fp, label := common.Hash(out[0].([32]byte)), out[1].(string)
	if err := s.Scenarios.Register(fp, label); err != nil {
		return nil, gas, err
	}
	e.log.Info("scenario registered", "scenario", fp, "label", label)
	return nil, gas, nil
}

func (e *UserExecutor) setScenarioEnabled(s *Settings, caller common.Address, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, out, err := adminCall(UserABI, "setScenarioEnabled", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	fp, enabled := common.Hash(out[0].([32]byte)), out[1].(bool)
	if err := s.Scenarios.SetEnabled(fp, enabled); err != nil {
		return nil, gas, err
	}
	e.log.Info("scenario toggled", "scenario", fp, "enabled", enabled)
	return nil, gas, nil
}

func (e *UserExecutor) setResolvedRouters(s *Settings, caller common.Address, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, out, err := adminCall(UserABI, "setResolvedRouters", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	routers := out[0].([]common.Address)
	if gas, err = contract.DeductGas(gas, GasPerRouter*uint64(len(routers))); err != nil {
		return nil, 0, err
	}
	if err := s.Routers.SetAllowedRouters(routers); err != nil {
		return nil, gas, err
	}
	e.log.Info("routers replaced", "routers", routers)
	return nil, gas, nil
}

func (e *UserExecutor) setOracle(s *Settings, caller common.Address, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, out, err := adminCall(UserABI, "setOracle", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	oracle, baseToken := out[0].(common.Address), out[1].(common.Address)
	if err := s.Fees.SetOracle(oracle, baseToken); err != nil {
		return nil, gas, err
	}
	e.log.Info("oracle bound", "oracle", oracle, "baseToken", baseToken)
	return nil, gas, nil
}

func (e *UserExecutor) setFee(s *Settings, caller common.Address, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, out, err := adminCall(UserABI, "setFee", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	baseAmount, _ := uint256.FromBig(out[0].(*big.Int))
	receiver := out[1].(common.Address)
	if err := s.Fees.SetFee(baseAmount, receiver); err != nil {
		return nil, gas, err
	}
	e.log.Info("fee set", "baseAmount", baseAmount, "receiver", receiver)
	return nil, gas, nil
}

func (e *UserExecutor) setRelay(host contract.AccessibleState, s *Settings, caller common.Address, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, out, err := adminCall(UserABI, "setRelay", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	relay, arity := out[0].(common.Address), bridge.RelayArity(out[1].(uint8))
	if gas, err = s.Bridge.SetRelay(host, relay, arity, gas); err != nil {
		return nil, gas, err
	}
	e.log.Info("relay bound", "relay", relay, "arity", arity)
	return nil, gas, nil
}

func (e *UserExecutor) setMirrorAsset(host contract.AccessibleState, s *Settings, caller common.Address, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, out, err := adminCall(UserABI, "setMirrorAsset", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	asset := out[0].(common.Address)
	if gas, err = s.Bridge.SetMirrorAsset(host, asset, gas); err != nil {
		return nil, gas, err
	}
	e.log.Info("mirror asset bound", "asset", asset)
	return nil, gas, nil
}

func (e *UserExecutor) approveRelay(host contract.AccessibleState, s *Settings, caller common.Address, suppliedGas uint64) ([]byte, uint64, error) {
	gas, _, err := adminCall(UserABI, "approveRelay", s, caller, nil, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	if gas, err = s.Bridge.ApproveRelay(host, gas); err != nil {
		return nil, gas, err
	}
	b := s.Bridge.Binding()
	e.log.Info("relay approved", "relay", b.Relay, "mirrorAsset", b.MirrorAsset)
	return nil, gas, nil
}

func (e *UserExecutor) setEventLogger(s *Settings, caller common.Address, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, out, err := adminCall(UserABI, "setEventLogger", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	logger := out[0].(common.Address)
	s.SetEventLogger(logger)
	e.log.Info("event logger bound", "logger", logger)
	return nil, gas, nil
}

func (e *UserExecutor) getScenario(s *Settings, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	out, err := UserABI.UnpackInput("getScenario", args, false)
	if err != nil {
		return nil, gas, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	sc, exists := s.Scenarios.Lookup(common.Hash(out[0].([32]byte)))
	ret, err := UserABI.PackOutput("getScenario", sc.Label, sc.Enabled, exists)
	return ret, gas, err
}

func (e *UserExecutor) getResolvedRouters(s *Settings, suppliedGas uint64) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	ret, err := UserABI.PackOutput("getResolvedRouters", s.Routers.AllowedRouters())
	return ret, gas, err
}

func (e *UserExecutor) isResolvedRouter(s *Settings, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	out, err := UserABI.UnpackInput("isResolvedRouter", args, false)
	if err != nil {
		return nil, gas, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ret, err := UserABI.PackOutput("isResolvedRouter", s.Routers.IsAllowedRouter(out[0].(common.Address)))
	return ret, gas, err
}

func (e *UserExecutor) getFeeConfig(s *Settings, suppliedGas uint64) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	cfg, binding := s.Fees.Config(), s.Fees.OracleBinding()
	ret, err := UserABI.PackOutput("getFeeConfig", cfg.BaseAmount.ToBig(), cfg.Receiver, binding.Oracle, binding.BaseToken)
	return ret, gas, err
}

func (e *UserExecutor) calcFee(host contract.AccessibleState, s *Settings, suppliedGas uint64) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	due, gas, err := s.Fees.CalcFee(host, gas)
	if err != nil {
		return nil, gas, err
	}
	ret, err := UserABI.PackOutput("calcFee", due.ToBig())
	return ret, gas, err
}

func (e *UserExecutor) getRelayBinding(s *Settings, suppliedGas uint64) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	b := s.Bridge.Binding()
	ret, err := UserABI.PackOutput("getRelayBinding", b.Relay, b.MirrorAsset, uint8(b.Arity), b.Approved)
	return ret, gas, err
}

// checkRelayCalls rejects relayTokens calls to the bound relay whose shape
// differs from the bound arity.
func checkRelayCalls(b bridge.Binding, ops []Operation) error {
	if b.Relay == (common.Address{}) || !b.Arity.Valid() {
		return nil
	}
	want, err := b.Arity.Selector()
	if err != nil {
		return err
	}
	for i, op := range ops {
		if op.Dest != b.Relay {
			continue
		}
		sel, err := scenario.SelectorOf(op.Data)
		if err != nil {
			return err
		}
		if bridge.IsRelaySelector(sel) && !bytes.Equal(sel[:], want) {
			return fmt.Errorf("%w: operation %d calls %s, relay is bound as %s", ErrRelayArityMismatch, i, sel, b.Arity)
		}
	}
	return nil
}

// adminCall charges a settings write, rejects entry while a batch is running,
// authenticates the administrator and unpacks the arguments of [method].
func adminCall(
	a contract.ExtendedABI,
	method string,
	s *Settings,
	caller common.Address,
	args []byte,
	suppliedGas uint64,
) (uint64, []interface{}, error) {
	gas, err := contract.DeductGas(suppliedGas, GasWrite)
	if err != nil {
		return 0, nil, err
	}
	if s.Locked() {
		return gas, nil, ErrReentrantCall
	}
	if err := s.RequireAdmin(caller); err != nil {
		return gas, nil, err
	}
	out, err := a.UnpackInput(method, args, false)
	if err != nil {
		return gas, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return gas, out, nil
}

func setAdmin(a contract.ExtendedABI, s *Settings, caller common.Address, args []byte, suppliedGas uint64, logger log.Logger) ([]byte, uint64, error) {
	gas, out, err := adminCall(a, "setAdmin", s, caller, args, suppliedGas)
	if err != nil {
		return nil, gas, err
	}
	newAdmin := out[0].(common.Address)
	if err := s.SetAdmin(newAdmin); err != nil {
		return nil, gas, err
	}
	logger.Info("admin transferred", "from", caller, "to", newAdmin)
	return nil, gas, nil
}

func readAddress(a contract.ExtendedABI, method string, addr common.Address, suppliedGas uint64) ([]byte, uint64, error) {
	gas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	ret, err := a.PackOutput(method, addr)
	return ret, gas, err
}

func isView(method abi.Method) bool {
	return method.StateMutability == "view" || method.StateMutability == "pure"
}
