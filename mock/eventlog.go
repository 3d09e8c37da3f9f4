// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mock

import (
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

const eventLoggerABI = `[
	{"type":"function","name":"MANAGER_ROLE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"grantRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[]},
	{"type":"function","name":"revokeRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[]},
	{"type":"function","name":"hasRole","stateMutability":"view","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"log","stateMutability":"nonpayable","inputs":[{"name":"data","type":"tuple","components":[{"name":"values","type":"uint256[]"},{"name":"senders","type":"address[]"},{"name":"receivers","type":"address[]"}]}],"outputs":[]},
	{"type":"event","name":"Logged","anonymous":false,"inputs":[{"name":"emitter","type":"address","indexed":true},{"name":"data","type":"bytes","indexed":false}]}
]`

// EventLoggerABI is the structured event logger interface.
var EventLoggerABI = contract.ParseABI(eventLoggerABI)

// ManagerRole gates log.
var ManagerRole = common.BytesToHash(crypto.Keccak256([]byte("MANAGER_ROLE")))

// LogEvent is the tuple accepted by log.
type LogEvent struct {
	Values    []*big.Int
	Senders   []common.Address
	Receivers []common.Address
}

var eventLoggerRolesSlot = contract.NamespaceSlot("mock.eventlog.roles")

// EventLogger records structured events from accounts holding ManagerRole.
// Roles are granted by a fixed administrator.
type EventLogger struct {
	dispatcher
	admin common.Address
}

var _ contract.StatefulPrecompiledContract = (*EventLogger)(nil)

// NewEventLogger returns a logger administered by [admin].
func NewEventLogger(admin common.Address) *EventLogger {
	l := &EventLogger{admin: admin}
	l.dispatcher = dispatcher{
		abi: EventLoggerABI,
		handlers: map[string]handler{
			"MANAGER_ROLE": l.managerRole,
			"grantRole":    l.grantRole,
			"revokeRole":   l.revokeRole,
			"hasRole":      l.hasRole,
			"log":          l.log,
		},
	}
	return l
}

func (l *EventLogger) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	return l.run(accessibleState, caller, addr, input, suppliedGas, readOnly)
}

func roleSlot(role [32]byte, account common.Address) common.Hash {
	return contract.MappingSlot(contract.MappingSlot(eventLoggerRolesSlot, role[:]), account.Bytes())
}

func (l *EventLogger) managerRole(*call, []interface{}) ([]interface{}, error) {
	return []interface{}{[32]byte(ManagerRole)}, nil
}

func (l *EventLogger) grantRole(c *call, args []interface{}) ([]interface{}, error) {
	return nil, l.setRole(c, args[0].([32]byte), args[1].(common.Address), true)
}

func (l *EventLogger) revokeRole(c *call, args []interface{}) ([]interface{}, error) {
	return nil, l.setRole(c, args[0].([32]byte), args[1].(common.Address), false)
}

func (l *EventLogger) setRole(c *call, role [32]byte, account common.Address, granted bool) error {
	if c.caller != l.admin {
		return revert("account %s is missing the admin role", c.caller)
	}
	c.store.SetBool(roleSlot(role, account), granted)
	return nil
}

func (l *EventLogger) hasRole(c *call, args []interface{}) ([]interface{}, error) {
	return []interface{}{c.store.Bool(roleSlot(args[0].([32]byte), args[1].(common.Address)))}, nil
}

func (l *EventLogger) log(c *call, args []interface{}) ([]interface{}, error) {
	if !c.store.Bool(roleSlot(ManagerRole, c.caller)) {
		return nil, revert("account %s is missing role %s", c.caller, ManagerRole)
	}
	data, err := EventLoggerABI.Methods["log"].Inputs.Pack(args...)
	if err != nil {
		return nil, err
	}
	return nil, c.emit(EventLoggerABI, "Logged", c.caller, data)
}
